package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatEpoch(t *testing.T) {
	assert.Equal(t, "-", FormatEpoch(0))

	ts := time.Date(2024, 3, 9, 8, 7, 6, 0, time.Local)
	assert.Equal(t, "2024-03-09 08:07:06", FormatEpoch(ts.Unix()))
}

func TestFormatSize(t *testing.T) {
	tests := []struct {
		bytes int64
		want  string
	}{
		{0, "0 B"},
		{1023, "1023 B"},
		{1024, "1.0 KiB"},
		{1536, "1.5 KiB"},
		{104857600, "100.0 MiB"},
		{5 << 40, "5.0 TiB"},
	}

	for _, tc := range tests {
		assert.Equal(t, tc.want, FormatSize(tc.bytes))
	}
}
