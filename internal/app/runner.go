package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/samvad-hq/samvad-webhelpers/internal/config"
	"github.com/samvad-hq/samvad-webhelpers/internal/logger"
	"github.com/samvad-hq/samvad-webhelpers/internal/storage"
	"github.com/samvad-hq/samvad-webhelpers/pkg/cloudauth"
	"github.com/samvad-hq/samvad-webhelpers/pkg/httpclient"
	"github.com/samvad-hq/samvad-webhelpers/pkg/profiles"
	"github.com/samvad-hq/samvad-webhelpers/pkg/publishers"
	"github.com/samvad-hq/samvad-webhelpers/pkg/runsync"
	"github.com/samvad-hq/samvad-webhelpers/pkg/webhelper"
	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"
)

const acceptJSON = "application/json"

// Runner wires configuration, profiles, session storage and publishers
// around the webhelper client for the CLI.
type Runner struct {
	cfg      *config.Config
	log      logger.Logger
	profiles *profiles.Registry
	fanout   *publishers.Fanout
	store    storage.Store
}

// RequestOptions describes one CLI request.
type RequestOptions struct {
	Method       string
	URL          string
	Data         string
	Headers      []string
	Profile      string
	Session      string
	AllowFailure bool
	Query        string
	RPS          float64
}

// NewRunner builds a runner from config. Profiles and publishers are
// optional; storage falls back to the noop store.
func NewRunner(ctx context.Context, cfg *config.Config, log logger.Logger) (*Runner, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if log == nil {
		log = logger.NopLogger{}
	}
	if ctx == nil {
		ctx = context.Background()
	}

	r := &Runner{cfg: cfg, log: log}

	if strings.TrimSpace(cfg.ProfilesFile) != "" {
		reg, err := profiles.LoadRegistry(cfg.ProfilesFile)
		if err != nil {
			return nil, fmt.Errorf("load profiles registry: %w", err)
		}
		ids := make([]string, 0, len(reg.All()))
		for _, p := range reg.All() {
			ids = append(ids, p.ID)
		}
		log.InfoObj("profiles registry loaded", "profiles_meta", map[string]any{
			"count": len(ids),
			"ids":   ids,
		})
		r.profiles = reg
	}

	if strings.TrimSpace(cfg.PublishersFile) != "" {
		publisherReg, err := publishers.LoadRegistry(cfg.PublishersFile)
		if err != nil {
			return nil, fmt.Errorf("load publishers registry: %w", err)
		}
		enabled := publisherReg.Enabled()
		pubClients, err := publishers.BuildAll(ctx, publishers.DefaultRegistry(), enabled, log)
		if err != nil {
			return nil, fmt.Errorf("build publishers: %w", err)
		}
		r.fanout = publishers.NewFanout(pubClients)
		summaries := make([]map[string]string, 0, len(enabled))
		for _, pubCfg := range enabled {
			summaries = append(summaries, map[string]string{"id": pubCfg.ID, "type": pubCfg.Type})
		}
		log.InfoObj("publishers registry loaded", "publishers_meta", map[string]any{
			"count":      len(summaries),
			"publishers": summaries,
		})
	}

	store, err := storage.NewStore(cfg.StorageType, cfg.BBoltPath, storage.Options{SessionTTL: cfg.SessionTTL})
	if err != nil {
		r.closePublishers()
		return nil, fmt.Errorf("init storage: %w", err)
	}
	r.store = store
	log.DebugObj("storage initialized", "storage_config", map[string]any{
		"type":                cfg.StorageType,
		"path":                cfg.BBoltPath,
		"session_ttl_seconds": int(cfg.SessionTTL.Seconds()),
	})

	return r, nil
}

// Close releases storage and publisher connections.
func (r *Runner) Close() error {
	if r == nil {
		return nil
	}
	var errs []error
	if r.store != nil {
		if err := r.store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close storage: %w", err))
		}
	}
	if err := r.fanout.Close(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (r *Runner) closePublishers() {
	if err := r.fanout.Close(); err != nil {
		r.log.WarnObj("failed to close publishers", "error", err.Error())
	}
}

// Request performs one call and writes the response body (or the --query
// result) to out.
func (r *Runner) Request(ctx context.Context, opts RequestOptions, out io.Writer) error {
	target, err := r.resolveTarget(opts.Profile)
	if err != nil {
		return err
	}

	flagHeaders, err := parseHeaderFlags(opts.Headers)
	if err != nil {
		return err
	}

	var body any
	if data := strings.TrimSpace(opts.Data); data != "" {
		if !json.Valid([]byte(data)) {
			return fmt.Errorf("--data is not valid JSON")
		}
		body = json.RawMessage(data)
	}

	clientOpts := []webhelper.Option{webhelper.WithLogger(r.log)}
	if r.fanout.Size() > 0 {
		clientOpts = append(clientOpts, webhelper.WithAfterHook(r.fanout.Hook(r.log)))
	}
	if opts.RPS > 0 {
		clientOpts = append(clientOpts, webhelper.WithRateLimiter(rate.NewLimiter(rate.Limit(opts.RPS), 1)))
	}

	transport := httpclient.NewRestyTransport(httpclient.TransportOptions{
		BaseURL: target.baseURL,
		Timeout: target.timeout,
	})
	auth := target.auth
	client, err := webhelper.New(transport, &auth, clientOpts...)
	if err != nil {
		return err
	}

	session := strings.TrimSpace(opts.Session)
	var sessionHeaders map[string]string
	if session != "" {
		if sessionHeaders, err = r.store.LoadHeaders(session); err != nil {
			return fmt.Errorf("load session %q: %w", session, err)
		}
	}

	// Accept lives in the client's header set so it is cleared and re-applied
	// with everything else; any supplied Accept replaces it.
	if !hasHeader("Accept", target.headers, sessionHeaders, flagHeaders) {
		if err := client.AddHeader("Accept", acceptJSON); err != nil {
			return err
		}
	}
	if err := client.AddHeaders(target.headers); err != nil {
		return fmt.Errorf("profile headers: %w", err)
	}
	if sessionHeaders != nil {
		if err := client.AddHeaders(sessionHeaders); err != nil {
			return fmt.Errorf("session headers: %w", err)
		}
	}
	if err := client.AddHeaders(flagHeaders); err != nil {
		return err
	}

	var callOpts []webhelper.CallOption
	if opts.AllowFailure {
		callOpts = append(callOpts, webhelper.AllowFailure())
	}

	resp, err := runsync.RunSync(ctx, func(ctx context.Context) (*httpclient.Response, error) {
		return client.Send(ctx, opts.Method, opts.URL, body, callOpts...)
	})
	if err != nil {
		return err
	}

	if session != "" && len(flagHeaders) > 0 {
		merged := make(map[string]string, len(sessionHeaders)+len(flagHeaders))
		for k, v := range sessionHeaders {
			merged[k] = v
		}
		for k, v := range flagHeaders {
			merged[k] = v
		}
		if err := r.store.SaveHeaders(session, merged); err != nil {
			r.log.WarnObj("failed to save session headers", "session_error", map[string]any{
				"session": session,
				"error":   err.Error(),
			})
		}
	}

	r.log.InfoObj("request completed", "response", map[string]any{
		"method": strings.ToUpper(opts.Method),
		"url":    opts.URL,
		"status": resp.StatusCode,
		"bytes":  len(resp.Body),
	})
	return writeBody(out, resp.Body, opts.Query)
}

type target struct {
	baseURL string
	timeout time.Duration
	auth    cloudauth.Config
	headers map[string]string
}

func (r *Runner) resolveTarget(profileID string) (target, error) {
	profileID = strings.TrimSpace(profileID)
	if profileID == "" {
		auth, err := r.cfg.CloudAuth.AuthConfig()
		if err != nil {
			return target{}, fmt.Errorf("cloud auth config: %w", err)
		}
		return target{timeout: r.cfg.RequestTimeout, auth: auth, headers: map[string]string{}}, nil
	}
	if r.profiles == nil {
		return target{}, fmt.Errorf("profile %q requested but no profiles_file is configured", profileID)
	}
	p, err := r.profiles.Lookup(profileID)
	if err != nil {
		return target{}, err
	}
	auth, err := p.AuthConfig()
	if err != nil {
		return target{}, fmt.Errorf("profile %q auth: %w", p.ID, err)
	}
	headers := p.Headers
	if headers == nil {
		headers = map[string]string{}
	}
	return target{baseURL: p.BaseURL, timeout: p.Timeout(), auth: auth, headers: headers}, nil
}

func hasHeader(name string, sets ...map[string]string) bool {
	for _, set := range sets {
		for k := range set {
			if strings.EqualFold(k, name) {
				return true
			}
		}
	}
	return false
}

// parseHeaderFlags turns repeated "Name: value" flags into a map.
func parseHeaderFlags(raw []string) (map[string]string, error) {
	out := make(map[string]string, len(raw))
	for _, h := range raw {
		name, value, ok := strings.Cut(h, ":")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("%w: header %q must be in Name: value form", webhelper.ErrInvalidArgument, h)
		}
		out[name] = strings.TrimSpace(value)
	}
	return out, nil
}

func writeBody(out io.Writer, body []byte, query string) error {
	if out == nil || len(body) == 0 {
		return nil
	}
	query = strings.TrimSpace(query)
	if query == "" {
		_, err := out.Write(body)
		if err == nil && body[len(body)-1] != '\n' {
			_, err = io.WriteString(out, "\n")
		}
		return err
	}
	if !gjson.ValidBytes(body) {
		return fmt.Errorf("--query needs a JSON response body")
	}
	res := gjson.GetBytes(body, query)
	if !res.Exists() {
		return fmt.Errorf("query %q matched nothing", query)
	}
	val := res.Raw
	if res.Type == gjson.String {
		val = res.String()
	}
	_, err := fmt.Fprintln(out, val)
	return err
}
