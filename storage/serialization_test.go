package storage

import (
	"math"
	"testing"
	"time"

	"github.com/poiesic/nyaya/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalUnmarshalID(t *testing.T) {
	tests := []struct {
		name string
		id   core.ID
	}{
		{"zero ID", core.ID(0)},
		{"small ID", core.ID(42)},
		{"large ID", core.ID(18446744073709551615)}, // max uint64
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := MarshalID(tt.id)
			require.NotEmpty(t, data)

			decoded, err := UnmarshalID(data)
			require.NoError(t, err)
			assert.Equal(t, tt.id, decoded)
		})
	}
}

func TestUnmarshalID_Empty(t *testing.T) {
	_, err := UnmarshalID([]byte{})
	assert.ErrorIs(t, err, ErrTruncatedData)
}

func TestEncodeDecodeVector(t *testing.T) {
	vec := core.Embedding{0, 1, -2.5, 101, float32(math.MaxFloat32), float32(math.SmallestNonzeroFloat32)}

	blob := EncodeVector(vec)
	assert.Len(t, blob, len(vec)*4)

	decoded, err := DecodeVector(blob)
	require.NoError(t, err)
	assert.Equal(t, vec, decoded)
}

func TestEncodeDecodeVector_Empty(t *testing.T) {
	assert.Nil(t, EncodeVector(nil))
	assert.Nil(t, EncodeVector(core.Embedding{}))

	decoded, err := DecodeVector(nil)
	require.NoError(t, err)
	assert.Nil(t, decoded)
}

func TestDecodeVector_BadLength(t *testing.T) {
	_, err := DecodeVector([]byte{1, 2, 3})
	assert.ErrorIs(t, err, ErrSerializationFailed)
}

func TestMarshalUnmarshalSection(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Microsecond)

	tests := []struct {
		name    string
		section *core.Section
	}{
		{
			name: "full section",
			section: &core.Section{
				Id:          7,
				SectionNo:   "303(2)",
				Title:       "Theft",
				Description: "Whoever commits theft shall be punished",
				Punishment:  "Imprisonment up to three years, or fine, or both",
				Vector:      core.Embedding{2, 14, 9, 3, 0, 0},
				InsertedAt:  now,
				UpdatedAt:   now.Add(time.Minute),
			},
		},
		{
			name: "section without vector",
			section: &core.Section{
				Id:        1,
				SectionNo: "101",
				Title:     "Murder",
			},
		},
		{
			name: "unicode text",
			section: &core.Section{
				Id:          3,
				SectionNo:   "१२",
				Title:       "चोरी",
				Description: "Déjà vu, naïve",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := MarshalSection(tt.section)
			decoded, err := UnmarshalSection(data)
			require.NoError(t, err)

			assert.Equal(t, tt.section.Id, decoded.Id)
			assert.Equal(t, tt.section.SectionNo, decoded.SectionNo)
			assert.Equal(t, tt.section.Title, decoded.Title)
			assert.Equal(t, tt.section.Description, decoded.Description)
			assert.Equal(t, tt.section.Punishment, decoded.Punishment)
			assert.Equal(t, tt.section.Vector, decoded.Vector)
			assert.True(t, tt.section.InsertedAt.Equal(decoded.InsertedAt))
			assert.True(t, tt.section.UpdatedAt.Equal(decoded.UpdatedAt))
		})
	}
}

func TestUnmarshalSection_Truncated(t *testing.T) {
	data := MarshalSection(&core.Section{
		Id:          9,
		SectionNo:   "9",
		Title:       "Forgery",
		Description: "making a false document",
		Vector:      core.Embedding{1, 2, 3},
	})

	for _, cut := range []int{0, 1, 5, len(data) / 2, len(data) - 1} {
		_, err := UnmarshalSection(data[:cut])
		assert.ErrorIs(t, err, ErrTruncatedData, "cut at %d", cut)
	}
}

func TestUnmarshalSection_UnknownVersion(t *testing.T) {
	data := MarshalSection(&core.Section{Id: 1, SectionNo: "1", Title: "x"})
	data[0] = 99
	_, err := UnmarshalSection(data)
	assert.ErrorIs(t, err, ErrUnsupportedVersion)
}

func TestMarshalUnmarshalCheckpoint(t *testing.T) {
	checkpoint := &core.Checkpoint{
		Name:           core.VectorCheckpoint,
		EncoderVersion: "wordpiece-0123456789ab/d128",
		Dimension:      128,
		Sections:       358,
		UpdatedAt:      time.Now().UTC().Truncate(time.Microsecond),
	}

	decoded, err := UnmarshalCheckpoint(MarshalCheckpoint(checkpoint))
	require.NoError(t, err)
	assert.Equal(t, checkpoint.Name, decoded.Name)
	assert.Equal(t, checkpoint.EncoderVersion, decoded.EncoderVersion)
	assert.Equal(t, checkpoint.Dimension, decoded.Dimension)
	assert.Equal(t, checkpoint.Sections, decoded.Sections)
	assert.True(t, checkpoint.UpdatedAt.Equal(decoded.UpdatedAt))
}

func TestUnmarshalCheckpoint_Empty(t *testing.T) {
	_, err := UnmarshalCheckpoint(nil)
	assert.ErrorIs(t, err, ErrTruncatedData)
}
