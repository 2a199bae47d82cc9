package core

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSectionView_OmitsVector(t *testing.T) {
	s := &Section{
		Id:          3,
		SectionNo:   "303",
		Title:       "Theft",
		Description: "Whoever intends to take dishonestly",
		Punishment:  "Imprisonment up to three years",
		Vector:      Embedding{2, 100, 3},
	}

	data, err := json.Marshal(NewSectionView(s))
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"id": 3,
		"sectionNo": "303",
		"title": "Theft",
		"description": "Whoever intends to take dishonestly",
		"punishment": "Imprisonment up to three years"
	}`, string(data))
}

func TestNewSectionViews_Empty(t *testing.T) {
	views := NewSectionViews(nil)
	require.NotNil(t, views)

	data, err := json.Marshal(views)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(data))
}
