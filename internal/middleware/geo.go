package middleware

import (
	"net"
	"net/http"
	"strings"

	"votemap-api/internal/logger"
	"votemap-api/internal/utils"

	"github.com/oschwald/geoip2-golang"
)

// CountryLookup：按 IP 查询 ISO 国家代码
type CountryLookup interface {
	CountryISO(ip net.IP) (string, error)
}

// mmdbLookup：基于 MaxMind GeoLite2-Country 库
type mmdbLookup struct {
	r *geoip2.Reader
}

func (m mmdbLookup) CountryISO(ip net.IP) (string, error) {
	rec, err := m.r.Country(ip)
	if err != nil {
		return "", err
	}
	return rec.Country.IsoCode, nil
}

// 文档注释：访客国家标注
// 背景：从真实来源 IP 解析国家代码并写入请求上下文，访问日志据此输出 country 字段；解析失败不阻断主流程。
// 约束：真实来源 IP 以 RemoteAddr 为准；部署在反向代理后时通过 realIPHeader 指定上游头，取首个有效 IP。
type GeoTagger struct {
	lookup       CountryLookup
	realIPHeader string
	closer       func() error
}

func NewGeoTagger(lookup CountryLookup, realIPHeader string) *GeoTagger {
	return &GeoTagger{lookup: lookup, realIPHeader: strings.TrimSpace(realIPHeader)}
}

// NewGeoTaggerFromEnv：GEOIP_DB_PATH 未配置或打开失败时返回 nil
func NewGeoTaggerFromEnv() *GeoTagger {
	path := utils.Getenv("GEOIP_DB_PATH", "")
	if path == "" {
		return nil
	}
	r, err := geoip2.Open(path)
	if err != nil {
		logger.L().Warn("geoip_open_error", "path", path, "err", err)
		return nil
	}
	logger.L().Info("geoip_open_ok", "path", path, "type", r.Metadata().DatabaseType)
	g := NewGeoTagger(mmdbLookup{r: r}, utils.Getenv("REAL_IP_HEADER", ""))
	g.closer = r.Close
	return g
}

func (g *GeoTagger) Close() error {
	if g == nil || g.closer == nil {
		return nil
	}
	return g.closer()
}

func (g *GeoTagger) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := g.extractIP(r)
		if ip == nil {
			next.ServeHTTP(w, r)
			return
		}
		iso, err := g.lookup.CountryISO(ip)
		if err != nil {
			logger.L().Debug("geoip_lookup_error", "ip", ip.String(), "err", err)
			next.ServeHTTP(w, r)
			return
		}
		next.ServeHTTP(w, r.WithContext(logger.WithCountry(r.Context(), iso)))
	})
}

// extractIP：解析请求来源 IP；优先指定头的首个有效 IP
func (g *GeoTagger) extractIP(r *http.Request) net.IP {
	if g.realIPHeader != "" {
		if raw := r.Header.Get(g.realIPHeader); raw != "" {
			first, _, _ := strings.Cut(raw, ",")
			if ip := net.ParseIP(strings.TrimSpace(first)); ip != nil {
				return ip
			}
		}
	}
	host := r.RemoteAddr
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	return net.ParseIP(host)
}
