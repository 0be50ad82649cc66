package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pb "github.com/intenza/hfeval/api/v1"
)

func sampleReport() *pb.ReportResponse {
	return &pb.ReportResponse{
		Machines: []string{"M1", "M2"},
		Sections: []string{"Grip"},
		Rows: []pb.ReportRow{
			{Section: "Grip", Metric: "Pass Rate (%)", Values: []string{"50.0%", "100.0%"}},
		},
		Digest: []pb.DigestEntry{
			{Key: "Lever | M1", Item: "Lever", Machine: "M1", Count: 2, Notes: "loose; rattles"},
		},
		Scores: []pb.MachineScore{{Machine: "M1", Average: 3.5, Count: 2}},
	}
}

func TestWriteReport(t *testing.T) {
	t.Run("csv", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, writeReport(&buf, sampleReport(), "csv"))
		assert.Equal(t, "Section,Metric,M1,M2\nGrip,Pass Rate (%),50.0%,100.0%\n", buf.String())
	})

	t.Run("ng ranking", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, writeReport(&buf, sampleReport(), "ng"))
		lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
		require.Len(t, lines, 2)
		assert.Contains(t, lines[1], "Lever | M1")
		assert.Contains(t, lines[1], "loose; rattles")
	})

	t.Run("scores", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, writeReport(&buf, sampleReport(), "scores"))
		assert.Contains(t, buf.String(), "3.5")
	})

	t.Run("unknown format", func(t *testing.T) {
		err := writeReport(&bytes.Buffer{}, sampleReport(), "xml")
		assert.ErrorIs(t, err, errUnknownFormat)
	})
}

func TestReadGrid(t *testing.T) {
	grid, err := readGrid(strings.NewReader("Tester,Machine\nalice,M1,extra\nbob\n"))
	require.NoError(t, err)
	require.Len(t, grid, 3)
	assert.Equal(t, []string{"alice", "M1", "extra"}, grid[1])
	assert.Equal(t, []string{"bob"}, grid[2])
}
