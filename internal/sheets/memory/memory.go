// Package memory é o adaptador de exportação em memória, usado em testes e
// em desenvolvimento sem planilha configurada.
package memory

import (
	"context"
	"fmt"
	"sync"

	"faturamento/internal/core"
)

type Store struct {
	mu    sync.Mutex
	items []core.ConsultaRegistro
}

func New() *Store {
	return &Store{}
}

// AppendConsulta stores the record and returns a synthetic row reference.
func (s *Store) AppendConsulta(_ context.Context, reg core.ConsultaRegistro) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append(s.items, reg)
	return fmt.Sprintf("mem:%d", len(s.items)), nil
}

// Registros returns a copy of everything appended so far.
func (s *Store) Registros() []core.ConsultaRegistro {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.ConsultaRegistro, len(s.items))
	copy(out, s.items)
	return out
}
