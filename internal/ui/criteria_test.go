package ui

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseCriteriaPrefixes(t *testing.T) {
	c := ParseCriteria("event:Login event:Logout key:userid expected:string received:int status:Valid")

	assert.Equal(t, []string{"Login", "Logout"}, c.Events)
	assert.Equal(t, []string{"userid"}, c.Fields)
	assert.Equal(t, []string{"string"}, c.ExpectedTypes)
	assert.Equal(t, []string{"int"}, c.ReceivedTypes)
	assert.Equal(t, []string{"Valid"}, c.Statuses)
	assert.Empty(t, c.ValueContains)
}

func TestParseCriteriaQuotedStatus(t *testing.T) {
	c := ParseCriteria(`status:"Payload value is Empty" event:Login`)

	assert.Equal(t, []string{"Payload value is Empty"}, c.Statuses)
	assert.Equal(t, []string{"Login"}, c.Events)
}

func TestParseCriteriaBareWordsBecomeValueSubstring(t *testing.T) {
	c := ParseCriteria("event:Login user name")

	assert.Equal(t, []string{"Login"}, c.Events)
	assert.Equal(t, "user name", c.ValueContains)
}

func TestParseCriteriaValuePrefix(t *testing.T) {
	c := ParseCriteria(`value:"abc def"`)

	assert.Equal(t, "abc def", c.ValueContains)
}

func TestParseCriteriaAliases(t *testing.T) {
	c := ParseCriteria("events:Login field:userid statuses:Valid")

	assert.Equal(t, []string{"Login"}, c.Events)
	assert.Equal(t, []string{"userid"}, c.Fields)
	assert.Equal(t, []string{"Valid"}, c.Statuses)
}

func TestParseCriteriaUnknownPrefixFallsThrough(t *testing.T) {
	c := ParseCriteria("foo:bar")

	assert.Empty(t, c.Events)
	assert.Equal(t, "foo:bar", c.ValueContains)
}

func TestParseCriteriaEmptyInput(t *testing.T) {
	c := ParseCriteria("")
	assert.True(t, c.IsEmpty())
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcdefg...", truncate("abcdefghijk", 10))
	assert.Equal(t, "ab", truncate("abcdef", 2))

	// Multi-byte names are cut on rune boundaries, never mid-rune.
	assert.Equal(t, "ログイン...", truncate("ログインイベント", 7))
	assert.Equal(t, "ログ", truncate("ログインイベント", 2))
	for _, got := range []string{truncate("événement déclenché", 10), truncate("ログインイベント", 5)} {
		assert.True(t, strings.HasSuffix(got, "..."))
		assert.Equal(t, got, string([]rune(got)))
	}
}
