package blockdev

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindRemovable(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "no devices",
			input: `{"blockdevices": []}`,
			want:  "",
		},
		{
			name: "removable unmounted partition as child",
			input: `{"blockdevices": [
				{"name":"sda","path":"/dev/sda","rm":true,"mountpoint":null,"children":[
					{"name":"sda1","path":"/dev/sda1","rm":true,"mountpoint":null}
				]},
				{"name":"mmcblk0","path":"/dev/mmcblk0","rm":false,"mountpoint":null,"children":[
					{"name":"mmcblk0p1","path":"/dev/mmcblk0p1","rm":false,"mountpoint":"/boot"},
					{"name":"mmcblk0p2","path":"/dev/mmcblk0p2","rm":false,"mountpoint":"/"}
				]}
			]}`,
			want: "/dev/sda1",
		},
		{
			name: "mounted removable partition is skipped",
			input: `{"blockdevices": [
				{"name":"sda","path":"/dev/sda","rm":true,"mountpoint":null,"children":[
					{"name":"sda1","path":"/dev/sda1","rm":true,"mountpoint":"/media/usb"}
				]}
			]}`,
			want: "",
		},
		{
			name: "whole disk without partition suffix is skipped",
			input: `{"blockdevices": [
				{"name":"sdb","path":"/dev/sdb","rm":true,"mountpoint":null}
			]}`,
			want: "",
		},
		{
			name: "non-removable partition is skipped",
			input: `{"blockdevices": [
				{"name":"nvme0n1","path":"/dev/nvme0n1","rm":false,"mountpoint":null,"children":[
					{"name":"nvme0n1p1","path":"/dev/nvme0n1p1","rm":false,"mountpoint":null}
				]}
			]}`,
			want: "",
		},
		{
			name: "legacy string flag encoding",
			input: `{"blockdevices": [
				{"name":"sda","path":"/dev/sda","rm":"1","mountpoint":null,"children":[
					{"name":"sda1","path":"/dev/sda1","rm":"1","mountpoint":null}
				]}
			]}`,
			want: "/dev/sda1",
		},
		{
			name: "first matching partition wins",
			input: `{"blockdevices": [
				{"name":"sda","path":"/dev/sda","rm":true,"mountpoint":null,"children":[
					{"name":"sda1","path":"/dev/sda1","rm":true,"mountpoint":null},
					{"name":"sda2","path":"/dev/sda2","rm":true,"mountpoint":null}
				]}
			]}`,
			want: "/dev/sda1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var parsed lsblkOutput
			require.NoError(t, json.Unmarshal([]byte(tt.input), &parsed))
			assert.Equal(t, tt.want, findRemovable(parsed.BlockDevices))
		})
	}
}

func TestFlag_Unmarshal(t *testing.T) {
	var d Device
	require.NoError(t, json.Unmarshal([]byte(`{"name":"sda1","rm":"0"}`), &d))
	assert.False(t, bool(d.Removable))

	require.NoError(t, json.Unmarshal([]byte(`{"name":"sda1","rm":1}`), &d))
	assert.True(t, bool(d.Removable))

	require.NoError(t, json.Unmarshal([]byte(`{"name":"sda1","rm":false}`), &d))
	assert.False(t, bool(d.Removable))
}
