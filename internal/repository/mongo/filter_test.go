package mongo

import (
	"errors"
	"regexp"
	"testing"

	"github.com/maxviazov/user-records-service/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestBuildFilter_EmptySearchMatchesAll(t *testing.T) {
	assert.Equal(t, bson.M{}, buildFilter(repository.UserFilter{}))
}

func TestBuildFilter_QuotesSearchText(t *testing.T) {
	f := buildFilter(repository.UserFilter{Search: "a.c+(x)"})
	or, ok := f["$or"].(bson.A)
	require.True(t, ok)
	require.Len(t, or, 3)

	for i, field := range []string{"name", "email", "address"} {
		clause, ok := or[i].(bson.M)
		require.True(t, ok)
		re, ok := clause[field].(primitive.Regex)
		require.True(t, ok, "field %s", field)
		assert.Equal(t, "i", re.Options)
		assert.Equal(t, regexp.QuoteMeta("a.c+(x)"), re.Pattern)

		compiled := regexp.MustCompile("(?i)" + re.Pattern)
		assert.True(t, compiled.MatchString("xx A.C+(X) yy"))
		assert.False(t, compiled.MatchString("abc+x"))
	}
}

func TestMapError(t *testing.T) {
	assert.NoError(t, mapError(nil))
	assert.ErrorIs(t, mapError(mongo.ErrNoDocuments), repository.ErrNotFound)

	dup := mongo.WriteException{WriteErrors: mongo.WriteErrors{{Code: 11000, Message: "E11000 duplicate key"}}}
	assert.ErrorIs(t, mapError(dup), repository.ErrAlreadyExists)

	other := errors.New("socket closed")
	assert.Same(t, other, mapError(other))
}
