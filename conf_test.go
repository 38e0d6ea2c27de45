package main

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBounds(t *testing.T) {
	b, err := parseBounds("-10.5, -20, 30, 40")
	require.NoError(t, err)
	assert.Equal(t, -10.5, b.Left())
	assert.Equal(t, -20.0, b.Bottom())
	assert.Equal(t, 30.0, b.Right())
	assert.Equal(t, 40.0, b.Top())
}

func TestParseBoundsErrors(t *testing.T) {
	for _, s := range []string{
		"",
		"1,2,3",
		"1,2,3,4,5",
		"a,2,3,4",
		"3,2,1,4",
		"1,4,3,2",
	} {
		_, err := parseBounds(s)
		require.Error(t, err, "input %q", s)
		assert.True(t, errors.Is(err, errBadBounds))
	}
}

func TestJobConfigValidate(t *testing.T) {
	valid := JobConfig{
		SrcPath:   "in.asc",
		OutPath:   "out.mbtiles",
		MinExtent: 256,
		MaxExtent: 512,
	}
	assert.NoError(t, valid.validate())

	cases := []struct {
		name   string
		mutate func(*JobConfig)
	}{
		{"no source", func(j *JobConfig) { j.SrcPath = "" }},
		{"no output", func(j *JobConfig) { j.OutPath = "" }},
		{"zero extent", func(j *JobConfig) { j.MinExtent = 0 }},
		{"inverted extents", func(j *JobConfig) { j.MaxExtent = 128 }},
		{"min zoom out of range", func(j *JobConfig) { j.MinZoom = 30 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			job := valid
			tc.mutate(&job)
			assert.Error(t, job.validate())
		})
	}
}

func TestValidateDryRunSkipsOutput(t *testing.T) {
	job := JobConfig{
		SrcPath:   "in.asc",
		MinExtent: 256,
		MaxExtent: 512,
		DryRun:    true,
	}
	assert.NoError(t, job.validate())
}
