package route

import (
	"bytes"
	"context"
	"testing"

	"github.com/dmitrijs2005/studioportal/internal/logging"
	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		path    string
		want    Category
		matched bool
	}{
		{"/", Public, true},
		{"", Public, true},
		{"/services", Public, true},
		{"/blog/post-1", Public, true},
		{"/about/", Public, true},
		{"/login", AuthFlow, true},
		{"/login?redirectedFrom=%2Fprofile", AuthFlow, true},
		{"/auth/callback", AuthFlow, true},
		{"/skills", Minimal, true},
		{"/skills/edit", Minimal, true},
		{"/welcome#top", Minimal, true},
		{"/profile", App, true},
		{"/dashboard/stats", App, true},
		{"/admin/teams/1", App, true},
		{"/profiles", Public, false},
		{"/servicesx", Public, false},
		{"/unknown", Public, false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got := Default.Classify(context.Background(), tt.path)
			assert.Equal(t, tt.want, got.Category)
			assert.Equal(t, tt.matched, got.Matched)
		})
	}
}

func TestClassify_Precedence(t *testing.T) {
	lists := Lists{
		Minimal: []string{"/x"},
		Public:  []string{"/x", "/y"},
		App:     []string{"/x", "/y", "/z"},
	}
	c := NewClassifier(lists, nil)
	ctx := context.Background()

	assert.Equal(t, Minimal, c.Classify(ctx, "/x").Category)
	assert.Equal(t, Public, c.Classify(ctx, "/y").Category)
	assert.Equal(t, App, c.Classify(ctx, "/z").Category)
}

func TestClassify_LogsUnmatched(t *testing.T) {
	var buf bytes.Buffer
	c := NewClassifier(DefaultLists(), logging.New(&buf, "text", "info"))

	c.Classify(context.Background(), "/nowhere")
	assert.Contains(t, buf.String(), "unclassified path")
	assert.Contains(t, buf.String(), "path=/nowhere")

	buf.Reset()
	c.Classify(context.Background(), "/profile")
	assert.Empty(t, buf.String())
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "/", Normalize(""))
	assert.Equal(t, "/", Normalize("/?a=b"))
	assert.Equal(t, "/profile", Normalize("/profile/"))
	assert.Equal(t, "/profile", Normalize("profile"))
	assert.Equal(t, "/a/b", Normalize("/a/b#frag"))
}

func TestLoginURL(t *testing.T) {
	assert.Equal(t, "/login?redirectedFrom=%2Fprofile", LoginURL("/profile"))
	assert.Equal(t, "/login?redirectedFrom=%2Fteams%2F7%3Ftab%3Dchat", LoginURL("/teams/7?tab=chat"))
}

func TestCategory_String(t *testing.T) {
	assert.Equal(t, "auth-flow", AuthFlow.String())
	assert.Equal(t, "unknown", Category(42).String())
}
