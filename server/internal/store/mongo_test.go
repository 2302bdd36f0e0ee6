package store

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// These cover the document mapping only; the driver itself needs a server.

func TestParseObjectID(t *testing.T) {
	oid := primitive.NewObjectID()
	got, err := parseObjectID(oid.Hex())
	require.NoError(t, err)
	assert.Equal(t, oid, got)

	for _, bad := range []string{"", "123", "zzzzzzzzzzzzzzzzzzzzzzzz"} {
		_, err := parseObjectID(bad)
		assert.ErrorIs(t, err, ErrNotFound, "id %q", bad)
	}
}

func TestPatchDoc(t *testing.T) {
	assert.Empty(t, patchDoc(UserPatch{}))

	got := patchDoc(UserPatch{Name: strp("Ana"), Age: intp(0)})
	assert.Equal(t, bson.D{
		{Key: "name", Value: "Ana"},
		{Key: "age", Value: 0},
	}, got)
}

func TestResultDocRoundTrip(t *testing.T) {
	oid := primitive.NewObjectID()
	at := time.Date(2024, 3, 9, 10, 30, 0, 0, time.UTC)

	in := sampleResult("Ana")
	in.ID = oid.Hex()
	in.TotalSubjects = 2
	in.CreatedAt = at

	doc := toResultDoc(oid, in)
	assert.Equal(t, "Mechanics", doc.Subjects[0].Name)
	assert.Equal(t, 4.0, doc.Subjects[1].CreditHours)

	// Round-trip through BSON to catch tag mistakes.
	raw, err := bson.Marshal(doc)
	require.NoError(t, err)
	var m bson.M
	require.NoError(t, bson.Unmarshal(raw, &m))
	for _, key := range []string{"_id", "studentName", "universityName", "departmentName", "semester", "totalSubjects", "subjects", "cgpa", "createdAt"} {
		assert.Contains(t, m, key)
	}

	var back resultDoc
	require.NoError(t, bson.Unmarshal(raw, &back))
	assert.Equal(t, in, back.toResult())
}

func TestUserDocToUser(t *testing.T) {
	oid := primitive.NewObjectID()
	d := userDoc{ID: oid, Name: "Ana", Email: "ana@example.com", Age: 30}
	assert.Equal(t, User{ID: oid.Hex(), Name: "Ana", Email: "ana@example.com", Age: 30}, d.toUser())
}

func TestUserDoc_DecodesLegacyAges(t *testing.T) {
	oid := primitive.NewObjectID()
	cases := []struct {
		name string
		age  any
		want int
	}{
		{"int32", int32(30), 30},
		{"int64", int64(41), 41},
		{"whole double", 25.0, 25},
		{"fractional double", 30.6, 31},
		{"negative double", -2.5, 0},
		{"NaN", math.NaN(), 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			raw, err := bson.Marshal(bson.D{
				{Key: "_id", Value: oid},
				{Key: "name", Value: "Ana"},
				{Key: "email", Value: "ana@example.com"},
				{Key: "age", Value: tc.age},
			})
			require.NoError(t, err)

			var d userDoc
			require.NoError(t, bson.Unmarshal(raw, &d))
			assert.Equal(t, User{ID: oid.Hex(), Name: "Ana", Email: "ana@example.com", Age: tc.want}, d.toUser())
		})
	}
}
