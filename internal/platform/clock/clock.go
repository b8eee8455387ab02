// Package clock centraliza la fuente de tiempo. Todo instante sale en UTC:
// ningún cálculo de "hoy" depende de la zona horaria de la máquina.
package clock

import "time"

type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

// System devuelve el reloj real.
func System() Clock { return systemClock{} }

// Fixed es un reloj congelado, pensado para tests.
type Fixed time.Time

func (f Fixed) Now() time.Time { return time.Time(f).UTC() }

// Func adapta una función al Clock (p.ej. un reloj que avanza en un test).
type Func func() time.Time

func (f Func) Now() time.Time { return f().UTC() }
