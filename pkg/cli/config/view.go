package config

const redacted = "[REDACTED]"

func mask(s string) string {
	if s == "" {
		return ""
	}
	return redacted
}

// View returns the effective configuration for diagnostics with secrets masked
func View(srv *Server, src *Source, snk *Sink, snt *Sentry) map[string]any {
	return map[string]any{
		"server": map[string]any{
			"addr":            srv.Addr,
			"env":             srv.Env,
			"max_body_bytes":  srv.MaxBodyBytes,
			"request_timeout": srv.RequestTimeout.String(),
			"debug_endpoints": srv.DebugEndpoints,
			"trust_proxy":     srv.TrustProxy,
			"ingress_limit":   srv.IngressLimit,
			"ingress_window":  srv.IngressWindow.String(),
		},
		"source": map[string]any{
			"secret":                         mask(src.Secret),
			"disable_signature_verification": src.DisableVerification,
			"signature_window":               src.TimeWindow.String(),
		},
		"sink": map[string]any{
			"webhook_url":  mask(snk.WebhookURL),
			"username":     snk.Username,
			"avatar_url":   snk.AvatarURL,
			"link_base":    snk.LinkBase,
			"max_attempts": snk.MaxAttempts,
			"base_delay":   snk.BaseDelay.String(),
			"min_interval": snk.MinInterval.String(),
		},
		"sentry": map[string]any{
			"dsn": mask(snt.DSN),
			"env": snt.Env,
		},
	}
}
