package database

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSchemaKeepsSlugNonUnique(t *testing.T) {
	assert.Regexp(t, regexp.MustCompile(`(?m)^\s*title\s+VARCHAR\(\d+\) NOT NULL UNIQUE,`), schema)
	assert.Regexp(t, regexp.MustCompile(`(?m)^\s*slug\s+VARCHAR\(\d+\) NOT NULL,`), schema)
	assert.Contains(t, schema, "DROP CONSTRAINT IF EXISTS books_slug_key", "older databases lose the slug constraint on migrate")
}
