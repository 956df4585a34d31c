package server

import (
	"net"
	"net/http"
	"strings"
)

// ------------------------------------------------------------
// clientIP:
//
// access record 에 남길 클라이언트 IP.
// 우선순위:
//  1. CF-Connecting-IP (Cloudflare 앞단)
//  2. X-Forwarded-For 중 첫 번째 public IP (ALB / Lambda function URL)
//  3. RemoteAddr
//
// 식별용일 뿐 인증에는 쓰지 않는다.
// ------------------------------------------------------------
func clientIP(r *http.Request) string {
	if ip := parseIP(r.Header.Get("CF-Connecting-IP")); ip != nil {
		return ip.String()
	}

	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		for _, part := range strings.Split(xff, ",") {
			if ip := parseIP(part); isPublicIP(ip) {
				return ip.String()
			}
		}
	}

	host := r.RemoteAddr
	if h, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		host = h
	}
	if ip := parseIP(host); ip != nil {
		return ip.String()
	}
	return ""
}

func parseIP(s string) net.IP {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return net.ParseIP(s)
}

// isPublicIP 는 private / loopback / link-local 이 아니면 true.
func isPublicIP(ip net.IP) bool {
	if ip == nil {
		return false
	}
	return !ip.IsPrivate() && !ip.IsLoopback() && !ip.IsLinkLocalUnicast() && !ip.IsLinkLocalMulticast()
}
