// Package catalog define el inventario estático de seats de una sala.
//
// El catálogo se construye una sola vez al arrancar el proceso a partir de
// los tamaños configurados por pool y es inmutable durante toda la vida del
// proceso. El orden de All() es determinístico (bloques por pool, sufijo
// numérico ascendente): la búsqueda de seat libre siempre recorre los slots
// en este orden, así el slot libre de número más bajo gana.
package catalog

import "fmt"

// Pool es un grupo de seats con rol fijo y capacidad fija.
type Pool string

const (
	PoolCollector Pool = "collector"
	PoolMonitor   Pool = "monitor"
	PoolCrew      Pool = "crew"
)

// Pools en orden canónico del catálogo.
var pools = []Pool{PoolCollector, PoolMonitor, PoolCrew}

// Valid indica si p es uno de los pools conocidos.
func (p Pool) Valid() bool {
	switch p {
	case PoolCollector, PoolMonitor, PoolCrew:
		return true
	}
	return false
}

// Slot es un seat asignable, etiquetado permanentemente con su pool.
type Slot struct {
	ID   string
	Pool Pool
}

// Sizes define la capacidad de cada pool.
type Sizes struct {
	Collector int
	Monitor   int
	Crew      int
}

// DefaultSizes son las capacidades del despliegue de referencia.
var DefaultSizes = Sizes{Collector: 16, Monitor: 4, Crew: 5}

func (s Sizes) of(p Pool) int {
	switch p {
	case PoolCollector:
		return s.Collector
	case PoolMonitor:
		return s.Monitor
	case PoolCrew:
		return s.Crew
	}
	return 0
}

// Catalog enumera todos los slots asignables de una sala.
type Catalog struct {
	slots  []Slot
	byID   map[string]Pool
	byPool map[Pool][]Slot
}

// New construye el catálogo. Los ids tienen la forma "collector_01",
// "monitor_01", "crew_01", ... con sufijo de dos dígitos.
func New(sizes Sizes) *Catalog {
	c := &Catalog{
		byID:   make(map[string]Pool),
		byPool: make(map[Pool][]Slot),
	}
	for _, p := range pools {
		n := sizes.of(p)
		for i := 1; i <= n; i++ {
			s := Slot{ID: fmt.Sprintf("%s_%02d", p, i), Pool: p}
			c.slots = append(c.slots, s)
			c.byID[s.ID] = p
			c.byPool[p] = append(c.byPool[p], s)
		}
	}
	return c
}

// All retorna todos los slots en orden determinístico.
// El slice retornado no debe mutarse.
func (c *Catalog) All() []Slot {
	return c.slots
}

// InPool retorna los slots de un pool, en orden.
func (c *Catalog) InPool(p Pool) []Slot {
	return c.byPool[p]
}

// PoolOf retorna el pool nativo de un slot id, o "" si no existe.
func (c *Catalog) PoolOf(slotID string) (Pool, bool) {
	p, ok := c.byID[slotID]
	return p, ok
}

// Size retorna la cantidad total de slots del catálogo.
func (c *Catalog) Size() int {
	return len(c.slots)
}
