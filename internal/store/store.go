// Package store implementa la persistencia de particiones: el archivo
// YAML completo grupo → usuario → registro, cargado y guardado como
// unidad. Es la hoja de la que dependen merger, sincronizador y
// lifecycle; nadie más toca el archivo.
package store

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Superskyyy/niuniu-plus/internal/domain/types"
	"github.com/Superskyyy/niuniu-plus/internal/util/atomicwrite"
)

// PartitionsFile es el nombre del archivo de particiones bajo el data root.
const PartitionsFile = "niuniu_lengths.yaml"

// enabledKey es la clave reservada dentro de cada grupo que marca si el
// plugin está activo. Nunca se itera como usuario ni participa en
// merge/fork.
const enabledKey = "plugin_enabled"

// Partition es el estado de un grupo: sus usuarios más el flag de
// habilitado. Enabled arranca en false hasta el comando de encendido.
type Partition struct {
	Enabled bool
	Users   map[string]*types.UserRecord
}

// NewPartition crea una partición vacía, deshabilitada.
func NewPartition() *Partition {
	return &Partition{Users: map[string]*types.UserRecord{}}
}

// UserIDs devuelve las claves de usuario presentes (sin la reservada).
func (p *Partition) UserIDs() []string {
	ids := make([]string, 0, len(p.Users))
	for id := range p.Users {
		ids = append(ids, id)
	}
	return ids
}

// Collection es el archivo completo: grupo → partición.
type Collection map[string]*Partition

// Ensure devuelve la partición del grupo, creándola si no existe.
func (c Collection) Ensure(groupID string) *Partition {
	p, ok := c[groupID]
	if !ok {
		p = NewPartition()
		c[groupID] = p
	}
	return p
}

// UnmarshalYAML decodifica una partición separando la clave reservada
// de los registros de usuario. Claves que empiezan con "_" se ignoran.
func (p *Partition) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.MappingNode {
		return fmt.Errorf("partition: se esperaba un mapping, hay %v", value.Kind)
	}
	p.Users = map[string]*types.UserRecord{}
	for i := 0; i+1 < len(value.Content); i += 2 {
		keyNode, valNode := value.Content[i], value.Content[i+1]
		key := keyNode.Value
		if key == enabledKey {
			if err := valNode.Decode(&p.Enabled); err != nil {
				return fmt.Errorf("partition: %s: %w", enabledKey, err)
			}
			continue
		}
		if strings.HasPrefix(key, "_") {
			continue
		}
		var rec types.UserRecord
		if err := valNode.Decode(&rec); err != nil {
			return fmt.Errorf("partition: usuario %s: %w", key, err)
		}
		p.Users[key] = &rec
	}
	return nil
}

// MarshalYAML vuelve a mezclar la clave reservada con los usuarios.
func (p *Partition) MarshalYAML() (interface{}, error) {
	out := make(map[string]interface{}, len(p.Users)+1)
	out[enabledKey] = p.Enabled
	for id, rec := range p.Users {
		out[id] = rec
	}
	return out, nil
}

// PartitionStore carga y guarda la colección completa.
type PartitionStore struct {
	path string
}

// New crea un PartitionStore sobre el data root dado.
func New(root string) *PartitionStore {
	return &PartitionStore{path: filepath.Join(root, PartitionsFile)}
}

// Path devuelve la ruta del archivo de particiones.
func (s *PartitionStore) Path() string { return s.path }

// Load lee la colección completa. Archivo ausente = colección vacía.
// Un archivo que no parsea es CorruptState: falla la operación sin
// tocar el archivo.
func (s *PartitionStore) Load() (Collection, error) {
	b, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return Collection{}, nil
		}
		return nil, fmt.Errorf("store: leer %s: %w", s.path, err)
	}
	var c Collection
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("store: estado corrupto en %s: %w", s.path, err)
	}
	if c == nil {
		c = Collection{}
	}
	return c, nil
}

// Save persiste la colección completa de forma atómica.
func (s *PartitionStore) Save(c Collection) error {
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("store: serializar particiones: %w", err)
	}
	if err := atomicwrite.AtomicWriteFile(s.path, b, 0o644); err != nil {
		return fmt.Errorf("store: guardar %s: %w", s.path, err)
	}
	return nil
}
