package middleware

import (
	"context"
	"log/slog"
	"math"
	"net"
	"net/http"
	"net/netip"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiter ограничивает частоту запросов по IP (token bucket из x/time/rate)
type RateLimiter struct {
	buckets map[string]*bucket
	logger  *slog.Logger
	now     func() time.Time
	trusted []netip.Prefix
	limit   rate.Limit
	burst   int
	idleTTL time.Duration
	mu      sync.Mutex
}

// RateLimiterOption configures a RateLimiter
type RateLimiterOption func(*RateLimiter)

// WithTrustedProxies включает разбор X-Forwarded-For и X-Real-IP для запросов,
// пришедших с этих адресов. Без доверенных прокси ключом служит RemoteAddr.
func WithTrustedProxies(prefixes ...netip.Prefix) RateLimiterOption {
	return func(rl *RateLimiter) {
		rl.trusted = prefixes
	}
}

// bucket представляет limiter для конкретного IP
type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter создает rate limiter.
// rps - разрешенное количество запросов в секунду, burst - размер всплеска.
// Очистка неактивных buckets работает, пока не отменен ctx.
func NewRateLimiter(ctx context.Context, rps float64, burst int, logger *slog.Logger, opts ...RateLimiterOption) *RateLimiter {
	rl := newRateLimiter(rps, burst, logger, time.Now, opts...)
	go rl.cleanup(ctx, time.Minute)
	return rl
}

func newRateLimiter(rps float64, burst int, logger *slog.Logger, now func() time.Time, opts ...RateLimiterOption) *RateLimiter {
	if burst < 1 {
		burst = 1
	}
	rl := &RateLimiter{
		buckets: make(map[string]*bucket),
		logger:  logger,
		now:     now,
		limit:   rate.Limit(rps),
		burst:   burst,
		idleTTL: 10 * time.Minute,
	}
	for _, opt := range opts {
		opt(rl)
	}
	return rl
}

// cleanup периодически удаляет неактивные buckets для экономии памяти
func (rl *RateLimiter) cleanup(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.cleanupIdle()
		case <-ctx.Done():
			return
		}
	}
}

// cleanupIdle удаляет buckets, которые не использовались дольше idleTTL
func (rl *RateLimiter) cleanupIdle() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	for key, b := range rl.buckets {
		if now.Sub(b.lastSeen) > rl.idleTTL {
			delete(rl.buckets, key)
		}
	}
}

// Allow проверяет, разрешен ли запрос для данного ключа (обычно IP адрес).
// При отказе возвращает через сколько можно повторить.
func (rl *RateLimiter) Allow(key string) (bool, time.Duration) {
	now := rl.now()

	rl.mu.Lock()
	b, exists := rl.buckets[key]
	if !exists {
		b = &bucket{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.buckets[key] = b
	}
	b.lastSeen = now
	rl.mu.Unlock()

	if b.limiter.AllowN(now, 1) {
		return true, 0
	}

	// Бронь только для расчета задержки, токен не расходуем
	reservation := b.limiter.ReserveN(now, 1)
	delay := reservation.DelayFrom(now)
	reservation.CancelAt(now)

	return false, delay
}

// Len возвращает количество отслеживаемых ключей
func (rl *RateLimiter) Len() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.buckets)
}

// Middleware отвечает 429 с Retry-After при превышении лимита
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := getClientIP(r, rl.trusted)

		allowed, retryAfter := rl.Allow(key)
		if !allowed {
			seconds := int(math.Ceil(retryAfter.Seconds()))
			if seconds < 1 {
				seconds = 1
			}

			rl.logger.WarnContext(r.Context(), "rate limit exceeded",
				slog.String("ip", key),
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("retry_after", seconds),
			)

			w.Header().Set("Retry-After", strconv.Itoa(seconds))
			writeJSONError(w, http.StatusTooManyRequests, "rate limit exceeded, please try again later")
			return
		}

		next.ServeHTTP(w, r)
	})
}

// getClientIP извлекает IP адрес клиента из запроса.
// Заголовки прокси учитываются только если соединение пришло от доверенного прокси,
// иначе любой клиент мог бы менять свой ключ подменой X-Forwarded-For.
func getClientIP(r *http.Request, trusted []netip.Prefix) string {
	// Порт отбрасываем, иначе каждое соединение получит свой bucket
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}

	remote, err := netip.ParseAddr(host)
	if err != nil || !isTrusted(remote, trusted) {
		return host
	}

	// Идем справа налево: правее всех записи наших прокси, первый недоверенный адрес это клиент
	if hops := forwardedFor(r); len(hops) > 0 {
		client := remote
		for i := len(hops) - 1; i >= 0; i-- {
			addr, err := netip.ParseAddr(hops[i])
			if err != nil {
				break
			}
			client = addr.Unmap()
			if !isTrusted(client, trusted) {
				break
			}
		}
		return client.String()
	}

	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
		if addr, err := netip.ParseAddr(xri); err == nil {
			return addr.Unmap().String()
		}
	}

	return host
}

// forwardedFor собирает все адреса из X-Forwarded-For, включая повторные заголовки
func forwardedFor(r *http.Request) []string {
	var hops []string
	for _, value := range r.Header.Values("X-Forwarded-For") {
		for _, hop := range strings.Split(value, ",") {
			if hop = strings.TrimSpace(hop); hop != "" {
				hops = append(hops, hop)
			}
		}
	}
	return hops
}

func isTrusted(addr netip.Addr, trusted []netip.Prefix) bool {
	addr = addr.Unmap()
	for _, p := range trusted {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}
