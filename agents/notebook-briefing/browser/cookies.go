package browser

import (
	"math"
	"time"

	"podcast-agent/agents/notebook-briefing/auth"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/network"
)

// cookieParams converts saved cookies into injection parameters. Same-site
// values are normalized; cookies without a name or domain are dropped.
func cookieParams(cookies []auth.Cookie) []*network.CookieParam {
	params := make([]*network.CookieParam, 0, len(cookies))
	for _, c := range cookies {
		if c.Name == "" || c.Domain == "" {
			continue
		}

		path := c.Path
		if path == "" {
			path = "/"
		}

		p := &network.CookieParam{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     path,
			Secure:   c.Secure,
			HTTPOnly: c.HTTPOnly,
			SameSite: network.CookieSameSite(auth.NormalizeSameSite(c.SameSite)),
		}
		// SameSite=None is only accepted on secure cookies
		if p.SameSite == network.CookieSameSiteNone {
			p.Secure = true
		}
		if c.Expires > 0 {
			sec, frac := math.Modf(c.Expires)
			expires := cdp.TimeSinceEpoch(time.Unix(int64(sec), int64(frac*1e9)))
			p.Expires = &expires
		}
		params = append(params, p)
	}
	return params
}

// savedCookies converts cookies read from the browser into the persisted form
func savedCookies(cookies []*network.Cookie) []auth.Cookie {
	out := make([]auth.Cookie, 0, len(cookies))
	for _, c := range cookies {
		if c == nil {
			continue
		}
		saved := auth.Cookie{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     c.Path,
			HTTPOnly: c.HTTPOnly,
			Secure:   c.Secure,
			SameSite: auth.NormalizeSameSite(string(c.SameSite)),
		}
		if !c.Session && c.Expires > 0 {
			saved.Expires = c.Expires
		}
		out = append(out, saved)
	}
	return out
}
