package sockets

import (
	"context"
	"net"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// LookupFunc 解析主机名，返回其全部地址。
type LookupFunc func(ctx context.Context, host string) ([]net.IP, error)

// Resolver 带缓存的域名解析器。结果在 ttl 之后过期，最多缓存 size 个主机名。
type Resolver struct {
	cache  *expirable.LRU[string, []net.IP]
	lookup LookupFunc
}

// NewResolver 创建解析器。lookup 为 nil 时使用 net.DefaultResolver。
func NewResolver(size int, ttl time.Duration, lookup LookupFunc) *Resolver {
	if lookup == nil {
		lookup = func(ctx context.Context, host string) ([]net.IP, error) {
			return net.DefaultResolver.LookupIP(ctx, "ip", host)
		}
	}
	return &Resolver{
		cache:  expirable.NewLRU[string, []net.IP](size, nil, ttl),
		lookup: lookup,
	}
}

// Lookup 返回 host 的地址。IP 字面量直接返回，不经过缓存。
func (r *Resolver) Lookup(ctx context.Context, host string) ([]net.IP, error) {
	if ip := net.ParseIP(host); ip != nil {
		return []net.IP{ip}, nil
	}
	if ips, ok := r.cache.Get(host); ok {
		return ips, nil
	}
	ips, err := r.lookup(ctx, host)
	if err != nil {
		return nil, err
	}
	if len(ips) == 0 {
		return nil, &net.DNSError{Err: "no such host", Name: host, IsNotFound: true}
	}
	r.cache.Add(host, ips)
	return ips, nil
}

// Len 返回缓存中的主机名数量。
func (r *Resolver) Len() int {
	return r.cache.Len()
}

// Purge 清空缓存。
func (r *Resolver) Purge() {
	r.cache.Purge()
}
