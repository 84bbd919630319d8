package devserver

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ferrors "git.home.luguber.info/inful/sitepipe/internal/foundation/errors"
	"git.home.luguber.info/inful/sitepipe/internal/fsutil"
	"git.home.luguber.info/inful/sitepipe/internal/metrics"
)

type site struct {
	root, temp, src, public, modules string
}

func newSite(t *testing.T) site {
	t.Helper()
	root := t.TempDir()
	s := site{
		root:    root,
		temp:    filepath.Join(root, "temp"),
		src:     filepath.Join(root, "src"),
		public:  filepath.Join(root, "public"),
		modules: filepath.Join(root, "node_modules"),
	}
	files := map[string]string{
		"temp/index.html":               "<html><body><h1>compiled</h1></body></html>",
		"src/index.html":                "<html><body>raw template</body></html>",
		"src/assets/images/logo.svg":    "<svg/>",
		"public/favicon.ico":            "ico",
		"public/docs/index.html":        "<p>docs</p>",
		"node_modules/jquery/jquery.js": "var $;",
	}
	for rel, body := range files {
		require.NoError(t, fsutil.WriteFile(filepath.Join(root, filepath.FromSlash(rel)), []byte(body)))
	}
	return s
}

func get(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func devServer(s site, liveReload bool) *Server {
	return New(Options{
		BaseDirs:   []string{s.temp, s.src, s.public},
		Routes:     map[string]string{"/node_modules": s.modules},
		LiveReload: liveReload,
	})
}

func TestBaseDirsInOrder(t *testing.T) {
	s := newSite(t)
	h := devServer(s, false).Handler()

	rec := get(t, h, "/")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "compiled")
	assert.NotContains(t, rec.Body.String(), ScriptPath)

	assert.Equal(t, "<svg/>", get(t, h, "/assets/images/logo.svg").Body.String())
	assert.Equal(t, "ico", get(t, h, "/favicon.ico").Body.String())
	assert.Equal(t, "<p>docs</p>", get(t, h, "/docs/").Body.String())
	assert.Equal(t, http.StatusNotFound, get(t, h, "/missing.css").Code)
}

func TestResolveStaysInsideDirs(t *testing.T) {
	s := newSite(t)
	srv := devServer(s, false)
	_, ok := srv.resolve("/../../etc/passwd")
	assert.False(t, ok)
	p, ok := srv.resolve("/node_modules/../index.html")
	require.True(t, ok)
	assert.Equal(t, filepath.Join(s.temp, "index.html"), p)
}

func TestRoutes(t *testing.T) {
	s := newSite(t)
	h := devServer(s, false).Handler()
	rec := get(t, h, "/node_modules/jquery/jquery.js")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "var $;", rec.Body.String())
}

func TestLiveReloadInjection(t *testing.T) {
	s := newSite(t)
	h := devServer(s, true).Handler()

	body := get(t, h, "/index.html").Body.String()
	assert.Contains(t, body, `<script src="`+ScriptPath+`"></script></body>`)

	script := get(t, h, ScriptPath)
	assert.Equal(t, http.StatusOK, script.Code)
	assert.Contains(t, script.Body.String(), EventsPath)

	assert.Equal(t, "var $;", get(t, h, "/node_modules/jquery/jquery.js").Body.String())
}

func TestInjectScript(t *testing.T) {
	assert.Equal(t, `<p>x</p><script src="`+ScriptPath+`"></script>`, string(InjectScript([]byte("<p>x</p>"))))
	out := string(InjectScript([]byte("<BODY>a</BODY>")))
	assert.True(t, strings.HasSuffix(out, `<script src="`+ScriptPath+`"></script></BODY>`))
}

func TestHealthAndMetrics(t *testing.T) {
	s := newSite(t)
	reg := prom.NewRegistry()
	rec := metrics.NewPrometheusRecorder(reg)
	srv := New(Options{BaseDirs: []string{s.temp}, LiveReload: true, Recorder: rec, Registry: reg})
	h := srv.Handler()

	assert.Equal(t, "ok", get(t, h, HealthPath).Body.String())
	srv.Reload()
	out := get(t, h, MetricsPath).Body.String()
	assert.Contains(t, out, "sitepipe_livereload_broadcasts_total 1")
}

func TestMethodNotAllowed(t *testing.T) {
	s := newSite(t)
	rec := httptest.NewRecorder()
	devServer(s, false).Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/index.html", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestStartStopAndReloadStream(t *testing.T) {
	s := newSite(t)
	var opened string
	srv := New(Options{
		BaseDirs:   []string{s.temp},
		LiveReload: true,
		Open:       true,
		OpenURL:    func(u string) error { opened = u; return nil },
	})
	require.NoError(t, srv.Start(context.Background()))
	defer func() { _ = srv.Stop(context.Background()) }()

	assert.Equal(t, srv.URL(), opened)
	assert.NotZero(t, srv.Port())

	resp, err := http.Get(fmt.Sprintf("http://127.0.0.1:%d%s", srv.Port(), EventsPath))
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	reader := bufio.NewReader(resp.Body)

	readData := func() string {
		for {
			line, err := reader.ReadString('\n')
			require.NoError(t, err)
			if strings.HasPrefix(line, "data: ") {
				return strings.TrimSpace(line)
			}
		}
	}
	assert.Equal(t, `data: {"version":0}`, readData())

	require.Eventually(t, func() bool { return srv.Hub().Clients() == 1 }, 2*time.Second, 10*time.Millisecond)
	srv.Reload()
	assert.Equal(t, `data: {"version":1}`, readData())

	require.NoError(t, srv.Stop(context.Background()))
	_, err = io.ReadAll(reader)
	assert.NoError(t, err)
}

func TestStartPortInUse(t *testing.T) {
	ln, err := net.Listen("tcp", ":0")
	require.NoError(t, err)
	defer func() { _ = ln.Close() }()
	port := ln.Addr().(*net.TCPAddr).Port

	srv := New(Options{Port: port})
	err = srv.Start(context.Background())
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryServer))
}

func TestWaitReturnsOnCancel(t *testing.T) {
	srv := New(Options{})
	assert.Error(t, srv.Wait(context.Background()))

	require.NoError(t, srv.Start(context.Background()))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.NoError(t, srv.Wait(ctx))
	assert.NoError(t, srv.Stop(context.Background()))
	assert.NoError(t, srv.Stop(context.Background()))
}
