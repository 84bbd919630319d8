package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyRunID      = "run_id"
	KeyPipeline   = "pipeline"
	KeyStep       = "step"
	KeyTarget     = "target"
	KeyDurationMS = "duration_ms"
	KeyPath       = "path"
	KeyFile       = "file"
	KeyFiles      = "files"
	KeyTool       = "tool"
	KeyBranch     = "branch"
	KeyRemote     = "remote"
	KeyCommit     = "commit"
	KeyMethod     = "method"
	KeyStatus     = "status"
	KeyPort       = "port"
	KeyURL        = "url"
	KeyUserAgent  = "user_agent"
	KeyRemoteAddr = "remote_addr"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func RunID(id string) slog.Attr         { return slog.String(KeyRunID, id) }
func Pipeline(name string) slog.Attr    { return slog.String(KeyPipeline, name) }
func Step(name string) slog.Attr        { return slog.String(KeyStep, name) }
func Target(name string) slog.Attr      { return slog.String(KeyTarget, name) }
func DurationMS(ms float64) slog.Attr   { return slog.Float64(KeyDurationMS, ms) }
func Path(p string) slog.Attr           { return slog.String(KeyPath, p) }
func File(f string) slog.Attr           { return slog.String(KeyFile, f) }
func Files(n int) slog.Attr             { return slog.Int(KeyFiles, n) }
func Tool(name string) slog.Attr        { return slog.String(KeyTool, name) }
func Branch(b string) slog.Attr         { return slog.String(KeyBranch, b) }
func Remote(r string) slog.Attr         { return slog.String(KeyRemote, r) }
func Commit(c string) slog.Attr         { return slog.String(KeyCommit, c) }
func Method(m string) slog.Attr         { return slog.String(KeyMethod, m) }
func Status(code int) slog.Attr         { return slog.Int(KeyStatus, code) }
func Port(p int) slog.Attr              { return slog.Int(KeyPort, p) }
func URL(u string) slog.Attr            { return slog.String(KeyURL, u) }
func UserAgent(ua string) slog.Attr     { return slog.String(KeyUserAgent, ua) }
func RemoteAddr(addr string) slog.Attr  { return slog.String(KeyRemoteAddr, addr) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
