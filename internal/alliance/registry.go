// Package alliance implementa la federación entre grupos: el registro
// persistido de alianzas, la resolución de scope efectivo, el merge
// determinista de registros repartidos en N particiones, la
// sincronización set/delta de escrituras, el ciclo de vida
// crear/ver/salir/disolver con fork al salir, y la difusión best-effort
// a todos los grupos miembro.
package alliance

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/Superskyyy/niuniu-plus/internal/util/atomicwrite"
)

// RegistryFile es el nombre del archivo de alianzas bajo el data root.
const RegistryFile = "alliances.yaml"

// Alliance es el registro persistido de una federación.
type Alliance struct {
	// Groups es la lista ordenada de miembros; el primero es el ancla.
	Groups []string `yaml:"groups"`

	CreatedAt int64 `yaml:"created_at"`

	// OriginalUsers: por grupo miembro, los usuarios que tenían
	// registro en su partición al momento de federar. Inmutable tras
	// la creación; solo alimenta el fork de salida.
	OriginalUsers map[string][]string `yaml:"original_users"`
}

// Anchor devuelve el grupo ancla (primero de la lista).
func (a *Alliance) Anchor() string {
	if len(a.Groups) == 0 {
		return ""
	}
	return a.Groups[0]
}

// HasGroup reporta si groupID es miembro.
func (a *Alliance) HasGroup(groupID string) bool {
	for _, g := range a.Groups {
		if g == groupID {
			return true
		}
	}
	return false
}

// Registry es el estado completo persistido: las dos vistas.
type Registry struct {
	Alliances       map[string]*Alliance `yaml:"alliances"`
	GroupToAlliance map[string]string    `yaml:"group_to_alliance"`
}

func newRegistry() *Registry {
	return &Registry{
		Alliances:       map[string]*Alliance{},
		GroupToAlliance: map[string]string{},
	}
}

// RegistryStore persiste el registro como unidad: cada mutación es un
// ciclo load-modify-save completo, nunca escrituras parciales.
type RegistryStore struct {
	path string
}

// NewRegistryStore crea el store sobre el data root dado.
func NewRegistryStore(root string) *RegistryStore {
	return &RegistryStore{path: filepath.Join(root, RegistryFile)}
}

// Load lee el registro completo. Archivo ausente = registro vacío.
func (s *RegistryStore) Load() (*Registry, error) {
	b, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return newRegistry(), nil
		}
		return nil, fmt.Errorf("alliance: leer %s: %w", s.path, err)
	}
	var r Registry
	if err := yaml.Unmarshal(b, &r); err != nil {
		return nil, fmt.Errorf("alliance: estado corrupto en %s: %w", s.path, err)
	}
	if r.Alliances == nil {
		r.Alliances = map[string]*Alliance{}
	}
	if r.GroupToAlliance == nil {
		r.GroupToAlliance = map[string]string{}
	}
	return &r, nil
}

// Save persiste el registro completo de forma atómica.
func (s *RegistryStore) Save(r *Registry) error {
	b, err := yaml.Marshal(r)
	if err != nil {
		return fmt.Errorf("alliance: serializar registro: %w", err)
	}
	if err := atomicwrite.AtomicWriteFile(s.path, b, 0o644); err != nil {
		return fmt.Errorf("alliance: guardar %s: %w", s.path, err)
	}
	return nil
}
