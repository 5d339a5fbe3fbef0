// FILE: lixenwraith/getopt/decode_test.go
package getopt

import (
	"net"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type serverSettings struct {
	Host string `getopt:"host"`
	Port int    `getopt:"port"`
}

type appSettings struct {
	Server   serverSettings `getopt:"server"`
	Timeout  time.Duration  `getopt:"timeout"`
	Tags     []string       `getopt:"tags"`
	Ports    []int          `getopt:"ports"`
	IP       net.IP         `getopt:"ip"`
	Subnet   *net.IPNet     `getopt:"subnet"`
	Endpoint *url.URL       `getopt:"endpoint"`
	Debug    bool           `getopt:"debug"`
	LogLevel string         `getopt:"log_level"`
}

func scanHarness(t *testing.T, files, vars map[string]string, args ...string) *harness {
	t.Helper()
	h := newHarness(t, appEnvironment(), files, vars)
	require.NoError(t, h.g.RegisterStruct("", &appSettings{
		Server:  serverSettings{Host: "localhost", Port: 8080},
		Timeout: 30 * time.Second,
		Tags:    []string{"a", "b"},
	}))
	h.parse(t, args...)
	return h
}

func TestScan(t *testing.T) {
	h := scanHarness(t,
		map[string]string{"/etc/app/app.conf": "[server]\nport = 9000\n"},
		map[string]string{"APP_SUBNET": "10.0.0.0/8"},
		"--ports", "80", "443", "--ip", "192.168.1.10", "--endpoint", "https://api.example.com/v1",
		"--debug", "--log-level", "warn",
	)

	var cfg appSettings
	require.NoError(t, h.g.Scan("", &cfg))

	assert.Equal(t, "localhost", cfg.Server.Host)
	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, 30*time.Second, cfg.Timeout)
	assert.Equal(t, []string{"a", "b"}, cfg.Tags, "multiple defaults are split")
	assert.Equal(t, []int{80, 443}, cfg.Ports)
	assert.True(t, cfg.IP.Equal(net.ParseIP("192.168.1.10")))
	require.NotNil(t, cfg.Subnet)
	assert.Equal(t, "10.0.0.0/8", cfg.Subnet.String())
	require.NotNil(t, cfg.Endpoint)
	assert.Equal(t, "api.example.com", cfg.Endpoint.Host)
	assert.True(t, cfg.Debug)
	assert.Equal(t, "warn", cfg.LogLevel)

	t.Run("Section", func(t *testing.T) {
		var srv serverSettings
		require.NoError(t, h.g.Scan("server", &srv))
		assert.Equal(t, serverSettings{Host: "localhost", Port: 9000}, srv)

		require.NoError(t, h.g.Scan("server::", &srv), "a trailing separator is accepted")
	})

	t.Run("MissingSection", func(t *testing.T) {
		srv := serverSettings{Host: "kept"}
		require.NoError(t, h.g.Scan("nowhere", &srv))
		assert.Equal(t, "kept", srv.Host)
	})

	t.Run("LeafPath", func(t *testing.T) {
		var srv serverSettings
		assert.Error(t, h.g.Scan("server::host", &srv))
	})

	t.Run("InvalidTargets", func(t *testing.T) {
		assert.Error(t, h.g.Scan("", cfg))
		assert.Error(t, h.g.Scan("", (*appSettings)(nil)))
	})
}

func TestScanErrors(t *testing.T) {
	t.Run("NotParsed", func(t *testing.T) {
		h := newHarness(t, appEnvironment(), nil, nil)
		require.NoError(t, h.g.RegisterStruct("", &serverSettings{}))
		var srv serverSettings
		assert.ErrorIs(t, h.g.Scan("", &srv), ErrNotParsed)
	})

	t.Run("BadAddress", func(t *testing.T) {
		h := scanHarness(t, nil, nil, "--ip", "not-an-ip")
		var cfg appSettings
		assert.Error(t, h.g.Scan("", &cfg))
	})

	t.Run("BadDuration", func(t *testing.T) {
		h := scanHarness(t, nil, nil, "--timeout", "soon")
		var cfg appSettings
		assert.Error(t, h.g.Scan("", &cfg))
	})
}
