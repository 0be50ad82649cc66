package service

import (
	"cmp"
	"testing"

	gocmp "github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/intenza/hfeval/internal/repository/models"
)

func TestRankNG(t *testing.T) {
	t.Run("count outranks note length", func(t *testing.T) {
		responses := []models.ResponseRecord{
			rec("M4", "Grip", "Lever", models.ResultNG, "loose"),
			rec("M4", "Controls", "Lever", models.ResultNG, ""),
			rec("M4", "Controls", "Lever", models.ResultNG, ""),
		}

		want := []Fact{
			{Section: NGSection("Controls"), Metric: "Lever", Machine: "M4", Value: "2 times"},
			{Section: NGSection("Grip"), Metric: "Lever", Machine: "M4", Value: "1 times"},
		}

		got := RankNG(responses, []string{"M4"})
		if diff := gocmp.Diff(want, got); diff != "" {
			t.Errorf("RankNG() mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("equal counts fall back to note length", func(t *testing.T) {
		responses := []models.ResponseRecord{
			rec("M1", "Grip", "Handle", models.ResultNG, "ok"),
			rec("M1", "Grip", "Lever", models.ResultNG, "very loose"),
		}

		got := RankNG(responses, []string{"M1"})
		require.Len(t, got, 2)
		assert.Equal(t, "Lever", got[0].Metric)
		assert.Equal(t, "Handle", got[1].Metric)
	})

	t.Run("ranking is non-increasing per machine", func(t *testing.T) {
		responses := []models.ResponseRecord{
			rec("M1", "Grip", "A", models.ResultNG, ""),
			rec("M1", "Grip", "B", models.ResultNG, "x"),
			rec("M1", "Grip", "B", models.ResultNG, ""),
			rec("M1", "Fit", "C", models.ResultNG, "abc"),
			rec("M1", "Fit", "C", models.ResultNG, "abcdef"),
			rec("M1", "Fit", "C", models.ResultNG, ""),
			rec("M1", "Fit", "D", models.ResultPass, "fine"),
		}

		groups := GroupNG(responses)
		byKey := make(map[string]NGGroup)
		for _, g := range groups {
			byKey[g.Section+"/"+g.Item] = g
		}

		facts := RankNG(responses, nil)
		require.Len(t, facts, 3)
		for i := 1; i < len(facts); i++ {
			prev := byKey[facts[i-1].Section[len(ngSectionPrefix):]+"/"+facts[i-1].Metric]
			cur := byKey[facts[i].Section[len(ngSectionPrefix):]+"/"+facts[i].Metric]
			assert.LessOrEqual(t, ByCountThenNoteLength(prev, cur), 0)
		}
	})

	t.Run("custom order", func(t *testing.T) {
		responses := []models.ResponseRecord{
			rec("M1", "Grip", "Zeta", models.ResultNG, ""),
			rec("M1", "Grip", "Zeta", models.ResultNG, ""),
			rec("M1", "Grip", "Alpha", models.ResultNG, ""),
		}
		byItem := func(a, b NGGroup) int { return cmp.Compare(a.Item, b.Item) }

		got := RankNG(responses, []string{"M1"}, WithNGOrder(byItem))
		require.Len(t, got, 2)
		assert.Equal(t, "Alpha", got[0].Metric)
	})

	t.Run("no NG", func(t *testing.T) {
		assert.Nil(t, RankNG([]models.ResponseRecord{rec("M1", "Grip", "A", models.ResultPass, "")}, nil))
	})
}

func TestGroupNG(t *testing.T) {
	responses := []models.ResponseRecord{
		rec("M1", "Grip", "Lever", models.ResultNG, "loose"),
		rec("M1", "Grip", "Lever", models.ResultNG, "loose"),
		rec("M1", "Grip", "Lever", models.ResultNG, "  stiff "),
		rec("M1", "Grip", "Lever", models.ResultPass, "ignored"),
	}

	want := []NGGroup{{Machine: "M1", Section: "Grip", Item: "Lever", Count: 3, Notes: "loose; stiff"}}
	assert.Equal(t, want, GroupNG(responses))
}

func TestDigestNG(t *testing.T) {
	responses := []models.ResponseRecord{
		rec("M1", "Grip", "Lever", models.ResultNG, "loose"),
		rec("M1", "Controls", "Lever", models.ResultNG, ""),
		rec("M1", "Controls", "Lever", models.ResultPass, "rattles"),
		rec("M2", "Grip", "Handle", models.ResultNG, "a much longer note"),
		rec("M2", "Grip", "Strap", models.ResultPass, "never failed"),
	}

	want := []NGDigestEntry{
		{Key: "Lever | M1", Item: "Lever", Machine: "M1", Count: 2, Notes: "loose; rattles"},
		{Key: "Handle | M2", Item: "Handle", Machine: "M2", Count: 1, Notes: "a much longer note"},
	}

	got := DigestNG(responses)
	if diff := gocmp.Diff(want, got); diff != "" {
		t.Errorf("DigestNG() mismatch (-want +got):\n%s", diff)
	}
	assert.Nil(t, DigestNG(nil))
}
