package collab

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckAuthenticityWithoutFeeds(t *testing.T) {
	c := NewChecker("", "")

	result, err := c.CheckAuthenticity(context.Background(), "https://example.com")
	require.NoError(t, err)
	assert.True(t, result.IsGenuine, "absent feeds lower confidence, not the verdict")
	assert.Equal(t, 75, result.ConfidenceScore)
	assert.Nil(t, result.VTResult)
	assert.Nil(t, result.GSResult)
}

func TestCheckAuthenticityRejectsBadURL(t *testing.T) {
	c := NewChecker("", "")
	_, err := c.CheckAuthenticity(context.Background(), "https://")
	assert.Error(t, err)
}

func TestOfficialLinkSuggestsBrand(t *testing.T) {
	c := NewChecker("", "")

	link, err := c.OfficialLink(context.Background(), "paypal-secure-login.com")
	require.NoError(t, err)
	assert.Equal(t, "https://www.paypal.com", link)

	link, err = c.OfficialLink(context.Background(), "METAMASK-airdrop.net")
	require.NoError(t, err)
	assert.Equal(t, "https://metamask.io", link)
}

func TestOfficialLinkNoSuggestion(t *testing.T) {
	c := NewChecker("", "")

	link, err := c.OfficialLink(context.Background(), "some-random-site.org")
	require.NoError(t, err)
	assert.Empty(t, link)
}

func TestOfficialLinkSkipsCanonicalDomain(t *testing.T) {
	c := NewChecker("", "")

	link, err := c.OfficialLink(context.Background(), "paypal.com")
	require.NoError(t, err)
	assert.Empty(t, link, "the canonical domain is not an imitation")
}

func TestHostOf(t *testing.T) {
	assert.Equal(t, "example.com", hostOf("https://example.com/path?q=1"))
	assert.Equal(t, "example.com", hostOf("http://example.com:8080"))
	assert.Equal(t, "example.com", hostOf("example.com"))
	assert.Empty(t, hostOf("https://"))
}
