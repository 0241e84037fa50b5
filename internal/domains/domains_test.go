package domains_test

import (
	"testing"

	"github.com/lumawork/go-sso-gateway/internal/domains"
	"github.com/stretchr/testify/require"
)

func TestParseEmail(t *testing.T) {
	local, domain := domains.ParseEmail("Ann.Smith@Co.Example")
	require.Equal(t, "ann.smith", local)
	require.Equal(t, "co.example", domain)
}

func TestParseEmail_NoDomain(t *testing.T) {
	local, domain := domains.ParseEmail("nodomain")
	require.Equal(t, "nodomain", local)
	require.Empty(t, domain)
}

func TestParseEmail_UsesLastAt(t *testing.T) {
	local, domain := domains.ParseEmail(`"odd@local"@example.com`)
	require.Equal(t, `"odd@local"`, local)
	require.Equal(t, "example.com", domain)
}

func TestSlugifyDomain(t *testing.T) {
	require.Equal(t, "co", domains.SlugifyDomain("co.example"))
	require.Equal(t, "getting-started-example", domains.SlugifyDomain("getting-started.example.com"))
	require.Equal(t, "localhost", domains.SlugifyDomain("localhost"))
}

func TestSlugify(t *testing.T) {
	require.Equal(t, "my-team-name", domains.Slugify("My Team  Name!"))
	require.Equal(t, "acme", domains.Slugify("--Acme--"))
}
