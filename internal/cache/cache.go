// Package cache fornece um LRU genérico com TTL e um gerenciador de
// limpeza periódica. O servidor HTTP o usa para as respostas de consulta,
// que são caras de produzir e seguras de reaproveitar por alguns minutos.
package cache

import (
	"log/slog"
	"time"
)

// Cleaner é implementado por caches que sabem expurgar entradas vencidas.
type Cleaner interface {
	CleanExpired() int
}

// Manager roda a limpeza periódica dos caches registrados num único
// goroutine, parado em Stop.
type Manager struct {
	caches      []Cleaner
	stopCleanup chan struct{}
	cleanupDone chan struct{}
}

func NewManager() *Manager {
	return &Manager{
		stopCleanup: make(chan struct{}),
		cleanupDone: make(chan struct{}),
	}
}

// Register adiciona um cache ao ciclo de limpeza. Não é seguro chamar
// depois de StartCleanup.
func (m *Manager) Register(cache Cleaner) {
	m.caches = append(m.caches, cache)
}

// StartCleanup dispara a limpeza periódica em background.
func (m *Manager) StartCleanup(interval time.Duration) {
	go m.cleanup(interval)
}

func (m *Manager) cleanup(interval time.Duration) {
	defer close(m.cleanupDone)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			total := 0
			for _, cache := range m.caches {
				total += cache.CleanExpired()
			}
			if total > 0 {
				slog.Debug("cache cleanup", "removed", total)
			}
		case <-m.stopCleanup:
			return
		}
	}
}

// Stop encerra a limpeza e espera o goroutine terminar.
func (m *Manager) Stop() {
	if m.stopCleanup != nil {
		close(m.stopCleanup)
		<-m.cleanupDone
	}
}
