package service

import (
	"fmt"
	"sync"
	"time"

	"github.com/blake-osondu/jobdroid-service/config"
)

// maxProxyFails is the failure count after which a proxy is deactivated.
const maxProxyFails = 3

// Proxy is one outbound identity in the rotation pool.
type Proxy struct {
	Host      string
	Port      int
	Username  string
	Password  string
	Protocol  string
	FailCount int
	Active    bool
	LastUsed  time.Time
}

// URL returns the proxy address in URL form.
func (p *Proxy) URL() string {
	if p.Username != "" && p.Password != "" {
		return fmt.Sprintf("%s://%s:%s@%s:%d", p.Protocol, p.Username, p.Password, p.Host, p.Port)
	}
	return fmt.Sprintf("%s://%s:%d", p.Protocol, p.Host, p.Port)
}

// ProxyPool rotates through configured proxies, skipping ones that have
// failed too often. An empty pool is valid; Next returns nil and runs
// use the direct connection.
type ProxyPool struct {
	mu      sync.Mutex
	proxies []*Proxy
	current int
}

// NewProxyPool builds a pool from configuration.
func NewProxyPool(cfgs []config.ProxyConfig) *ProxyPool {
	pool := &ProxyPool{}
	for _, c := range cfgs {
		protocol := c.Protocol
		if protocol == "" {
			protocol = "http"
		}
		pool.proxies = append(pool.proxies, &Proxy{
			Host:     c.Host,
			Port:     c.Port,
			Username: c.Username,
			Password: c.Password,
			Protocol: protocol,
			Active:   true,
		})
	}
	return pool
}

// Next returns the next usable proxy, or nil if none are available.
func (p *ProxyPool) Next() *Proxy {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.proxies) == 0 {
		return nil
	}

	for attempts := 0; attempts < len(p.proxies); attempts++ {
		p.current = (p.current + 1) % len(p.proxies)
		proxy := p.proxies[p.current]
		if proxy.Active && proxy.FailCount < maxProxyFails {
			proxy.LastUsed = time.Now()
			return proxy
		}
	}
	return nil
}

// MarkFailed records a failure against a proxy and deactivates it once
// it crosses the failure ceiling.
func (p *ProxyPool) MarkFailed(proxy *Proxy) {
	if proxy == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	proxy.FailCount++
	if proxy.FailCount >= maxProxyFails {
		proxy.Active = false
	}
}

// MarkWorking resets a proxy's failure count after a successful use.
func (p *ProxyPool) MarkWorking(proxy *Proxy) {
	if proxy == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	proxy.FailCount = 0
	proxy.Active = true
}

// ProxyStats summarizes pool health.
type ProxyStats struct {
	Total  int `json:"total"`
	Active int `json:"active"`
	Failed int `json:"failed"`
}

// Stats returns a snapshot of pool health.
func (p *ProxyPool) Stats() ProxyStats {
	p.mu.Lock()
	defer p.mu.Unlock()

	stats := ProxyStats{Total: len(p.proxies)}
	for _, proxy := range p.proxies {
		if proxy.Active {
			stats.Active++
		}
	}
	stats.Failed = stats.Total - stats.Active
	return stats
}
