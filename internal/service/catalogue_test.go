package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/intenza/hfeval/internal/repository/models"
)

func testCatalogue() Catalogue {
	return Catalogue{
		Machines: []models.Machine{
			{Series: "Alpha", Code: "M1"},
			{Series: "Alpha", Code: "M2"},
			{Series: "Beta", Code: "M3"},
			{Series: "Alpha", Code: "M1"},
		},
		Questions: []models.Question{
			{Section: "Grip", Text: "Handle"},
			{Section: "Fit", Text: "Gap", ApplicableMachines: []string{"M3"}},
			{Section: "Grip", Text: "Lever", ApplicableMachines: []string{"M1", "M2"}},
		},
	}
}

func TestCatalogue(t *testing.T) {
	c := testCatalogue()

	assert.Equal(t, []string{"M1", "M2", "M3"}, c.MachineCodes())
	assert.Equal(t, []string{"Alpha", "Beta"}, c.Series())
	assert.Equal(t, []string{"M3"}, c.MachinesInSeries("Beta"))
	assert.True(t, c.HasMachine("M2"))
	assert.False(t, c.HasMachine("M9"))
	assert.Equal(t, []string{"Grip", "Fit", models.SectionOverall}, c.Sections())
	assert.Nil(t, Catalogue{}.Sections())
}

func TestQuestionsForMachine(t *testing.T) {
	questions := testCatalogue().Questions

	assert.Equal(t, []SectionQuestions{
		{Section: "Grip", Questions: []string{"Handle", "Lever"}},
	}, QuestionsForMachine(questions, "M1"))

	assert.Equal(t, []SectionQuestions{
		{Section: "Grip", Questions: []string{"Handle"}},
		{Section: "Fit", Questions: []string{"Gap"}},
	}, QuestionsForMachine(questions, "M3"))
}

func TestSeriesProgress(t *testing.T) {
	c := testCatalogue()
	c.Machines = c.Machines[:3]
	responses := []models.ResponseRecord{
		scoreRec("alice", "M1", 4),
		scoreRec("bob", "M2", 3),
		rec("M2", "Grip", "Handle", models.ResultPass, ""),
	}

	t.Run("single tester", func(t *testing.T) {
		p := SeriesProgress(responses, c, "alice", "Alpha")
		assert.Equal(t, Progress{
			Series: "Alpha", Done: 1, Total: 2,
			Completed: []string{"M1"}, Remaining: []string{"M2"},
		}, p)
	})

	t.Run("every tester", func(t *testing.T) {
		p := SeriesProgress(responses, c, "", "Alpha")
		assert.Equal(t, 2, p.Done)
		assert.Empty(t, p.Remaining)
	})

	t.Run("unknown series", func(t *testing.T) {
		p := SeriesProgress(responses, c, "alice", "Gamma")
		assert.Zero(t, p.Total)
		assert.Empty(t, p.Completed)
	})
}
