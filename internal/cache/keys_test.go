package cache

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRequestKeyDeterministic(t *testing.T) {
	q1 := url.Values{}
	q1.Set("page", "2")
	q1.Set("per_page", "50")

	q2 := url.Values{}
	q2.Set("per_page", "50")
	q2.Set("page", "2")

	k1 := RequestKey(KeyPrefixAnalytics, "/analytics/overview", "u1", q1)
	k2 := RequestKey(KeyPrefixAnalytics, "/analytics/overview", "u1", q2)

	assert.Equal(t, k1, k2, "parameter order must not change the key")
}

func TestRequestKeyVariesByInputs(t *testing.T) {
	q := url.Values{"page": {"1"}}

	base := RequestKey(KeyPrefixAnalytics, "/analytics/overview", "u1", q)

	assert.NotEqual(t, base, RequestKey(KeyPrefixAnalytics, "/analytics/overview", "u2", q))
	assert.NotEqual(t, base, RequestKey(KeyPrefixAnalytics, "/analytics/timeseries", "u1", q))
	assert.NotEqual(t, base, RequestKey(KeyPrefixAnalytics, "/analytics/overview", "u1",
		url.Values{"page": {"2"}}))
}

func TestRequestKeyAnonymousDefault(t *testing.T) {
	k := RequestKey(KeyPrefixAnalytics, "/analytics/overview", "", nil)
	assert.Equal(t, "cache:analytics:analytics.overview:anonymous", k)
}
