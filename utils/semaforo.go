package utils

import "time"

// Semaforo implementa un semáforo contador con canales. Con capacidad 1 es
// el cerrojo con el que la MMU atiende de a una solicitud.
type Semaforo struct {
	c chan struct{}
}

// NewSemaforo crea un semáforo con capacidad inicial
func NewSemaforo(capacidad int) *Semaforo {
	if capacidad <= 0 {
		capacidad = 1
	}
	return &Semaforo{
		c: make(chan struct{}, capacidad),
	}
}

// Wait (P) decrementa el semáforo, bloquea si es 0
func (s *Semaforo) Wait() {
	s.c <- struct{}{}
}

// WaitTimeout es Wait con un límite de espera; devuelve false si venció.
func (s *Semaforo) WaitTimeout(limite time.Duration) bool {
	timer := time.NewTimer(limite)
	defer timer.Stop()

	select {
	case s.c <- struct{}{}:
		return true
	case <-timer.C:
		return false
	}
}

// Signal (V) incrementa el semáforo
func (s *Semaforo) Signal() {
	select {
	case <-s.c:
	default:
		// ya estaba libre
	}
}
