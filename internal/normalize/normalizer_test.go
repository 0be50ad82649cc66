package normalize

import (
	"testing"

	"github.com/intenza/hfeval/internal/repository/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestNormalize(t *testing.T) {
	n := New(zap.NewNop())

	t.Run("empty grid yields required columns", func(t *testing.T) {
		table := n.Normalize(nil, ResponsesSchema)

		assert.Equal(t, 0, table.Len())
		assert.Equal(t, ResponsesSchema.DefaultHeader, table.Columns)
		assert.Empty(t, table.Repairs)
	})

	t.Run("header row is detected", func(t *testing.T) {
		grid := Grid{
			{"tester", "machine_code", "section", "item", "result", "note", "score", "created_at"},
			{"amy", "M1", "Grip", "Texture", "Pass", "", "", "2025-01-01 10:00:00"},
		}

		table := n.Normalize(grid, ResponsesSchema)

		require.Equal(t, 1, table.Len())
		assert.Equal(t, "M1", table.Rows[0][ColMachineCode])
		assert.Equal(t, "Pass", table.Rows[0][ColResult])
		assert.Empty(t, table.Repairs)
	})

	t.Run("headerless grid gets positional header", func(t *testing.T) {
		grid := Grid{
			{"amy", "M1", "Grip", "Texture"},
			{"bob", "M2", "Fit", "Seat"},
		}

		table := n.Normalize(grid, ResponsesSchema)

		require.Equal(t, 2, table.Len())
		assert.Equal(t, "amy", table.Rows[0][ColTester])
		assert.Equal(t, "Seat", table.Rows[1][ColItem])
		// result, note, score and created_at were repaired
		assert.Len(t, table.Repairs, 4)
		assert.Equal(t, "", table.Rows[1][ColScore])
	})

	t.Run("headerless grid wider than default header", func(t *testing.T) {
		grid := Grid{{"series", "M1", "extra"}}

		table := n.Normalize(grid, MachinesSchema)

		assert.Equal(t, []string{ColSeries, ColMachineCode, "column_3"}, table.Columns)
		assert.Equal(t, "extra", table.Rows[0]["column_3"])
	})

	t.Run("missing columns are filled with defaults", func(t *testing.T) {
		grid := Grid{
			{"machine_code"},
			{"M1"},
			{"M2"},
		}

		table := n.Normalize(grid, MachinesSchema)

		assert.True(t, table.Has(ColSeries))
		assert.Equal(t, DefaultCategory, table.Rows[0][ColSeries])
		assert.Equal(t, DefaultCategory, table.Rows[1][ColSeries])
		assert.Len(t, table.Repairs, 1)
	})

	t.Run("short rows are padded", func(t *testing.T) {
		grid := Grid{
			{"section", "question", "applicable_machine_codes"},
			{"Grip"},
		}

		table := n.Normalize(grid, QuestionsSchema)

		require.Equal(t, 1, table.Len())
		assert.Equal(t, "", table.Rows[0][ColQuestion])
		assert.Equal(t, "", table.Rows[0][ColApplicable])
	})
}

func TestNormalize_LogsRepairs(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	n := New(zap.New(core))

	n.Normalize(Grid{{"machine_code"}, {"M1"}}, MachinesSchema)

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "column repaired", entry.Message)
	assert.Equal(t, ColSeries, entry.ContextMap()["column"])
}

func TestToResponses(t *testing.T) {
	n := New(nil)
	grid := Grid{
		{"tester", "machine_code", "section", "item", "result", "note", "score", "created_at"},
		{"amy", " M1 ", "Grip", "Texture", "NG", "rough", "", "t1"},
		{"amy", "M1", models.SectionOverall, models.ItemOverallScore, "N/A", "", "4", "t1"},
		{"amy", "M1", models.SectionOverall, models.ItemOverallScore, "N/A", "", "four", "t1"},
		{"amy", "M1", "Grip", "Handle", "", "", "", "t1"},
	}

	records := ToResponses(n.Normalize(grid, ResponsesSchema))

	require.Len(t, records, 4)
	assert.Equal(t, "M1", records[0].MachineCode)
	assert.Equal(t, models.ResultNG, records[0].Result)
	assert.Nil(t, records[0].Score)
	assert.Equal(t, models.ResultNotApplicable, records[1].Result)
	require.NotNil(t, records[1].Score)
	assert.Equal(t, 4.0, *records[1].Score)
	assert.Nil(t, records[2].Score, "non-numeric score is dropped")
	assert.Equal(t, models.ResultUnselected, records[3].Result)
}

func TestLegacyResponses(t *testing.T) {
	n := New(nil)

	t.Run("legacy header", func(t *testing.T) {
		grid := Grid{
			{"測試者", "機器代碼", "區塊", "項目", "Pass/NG", "Note", "分數", "日期時間"},
			{"amy", "M1", "Grip", "Texture", "NG", "rough", "", "t1"},
			{"amy", "M1", "整體評估", "整體評分", "N/A", "", "4", "t1"},
			{"amy", "M1", "Grip", "Handle", "未選擇", "", "", "t1"},
		}
		require.True(t, LegacyResponsesSchema.IsHeader(grid[0]))
		require.False(t, ResponsesSchema.IsHeader(grid[0]))

		table := n.Normalize(grid, LegacyResponsesSchema)
		assert.Empty(t, table.Repairs)
		assert.Equal(t, ResponsesSchema.DefaultHeader, table.Columns)
		assert.Equal(t, "測試者", grid[0][0], "input grid is left untouched")

		records := ToResponses(table)
		require.Len(t, records, 3)
		assert.Equal(t, "M1", records[0].MachineCode)
		assert.Equal(t, models.ResultNG, records[0].Result)
		assert.True(t, records[1].IsOverallScore())
		assert.Equal(t, models.SectionOverall, records[1].Section)
		require.NotNil(t, records[1].Score)
		assert.Equal(t, 4.0, *records[1].Score)
		assert.Equal(t, models.ResultUnselected, records[2].Result)
	})

	t.Run("headerless", func(t *testing.T) {
		grid := Grid{{"amy", "M2", "整體評估", "整體評分", "N/A", "", "5", "t2"}}

		records := ToResponses(n.Normalize(grid, LegacyResponsesSchema))

		require.Len(t, records, 1)
		assert.Equal(t, "M2", records[0].MachineCode)
		assert.True(t, records[0].IsOverallScore())
	})
}

func TestWithoutBlankMachines(t *testing.T) {
	records := []models.ResponseRecord{{MachineCode: "M1"}, {MachineCode: ""}, {MachineCode: "M2"}}

	kept, dropped := WithoutBlankMachines(records)

	assert.Equal(t, 1, dropped)
	require.Len(t, kept, 2)
	assert.Equal(t, "M2", kept[1].MachineCode)
}

func TestToMachinesAndQuestions(t *testing.T) {
	n := New(nil)

	machines := ToMachines(n.Normalize(Grid{
		{"series_name", "machine_code"},
		{"Cardio", "T100"},
		{"Cardio", "  "},
		{"Strength", "S200"},
	}, MachinesSchema))

	assert.Equal(t, []models.Machine{
		{Series: "Cardio", Code: "T100"},
		{Series: "Strength", Code: "S200"},
	}, machines)

	questions := ToQuestions(n.Normalize(Grid{
		{"section", "question", "applicable_machine_codes"},
		{"Grip", "Is the handle comfortable?", ""},
		{"Grip", "", ""},
		{"Fit", "Seat height range", "S200, S300"},
	}, QuestionsSchema))

	require.Len(t, questions, 2)
	assert.Nil(t, questions[0].ApplicableMachines)
	assert.Equal(t, []string{"S200", "S300"}, questions[1].ApplicableMachines)
	assert.True(t, questions[1].AppliesTo("S300"))
	assert.False(t, questions[1].AppliesTo("T100"))
}

func TestParseScore(t *testing.T) {
	cases := []struct {
		in   string
		want *float64
	}{
		{"", nil},
		{"abc", nil},
		{"NaN", nil},
		{"Inf", nil},
		{" 5 ", ptr(5)},
		{"3.5", ptr(3.5)},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			assert.Equal(t, tc.want, ParseScore(tc.in))
		})
	}
}

func ptr(v float64) *float64 { return &v }
