package alliance

// Resolver decide, por request, si un grupo opera solo o dentro de su
// alianza. Consulta el registro en cada llamada: sin snapshots.
type Resolver struct {
	reg *RegistryStore
}

// NewResolver crea un resolver sobre el registry store dado.
func NewResolver(reg *RegistryStore) *Resolver {
	return &Resolver{reg: reg}
}

// EffectiveScope devuelve el id de alianza si groupID es miembro de
// una, o el propio groupID si no. La ausencia de alianza es el caso
// normal, no un error; solo falla si el registro no carga.
func (r *Resolver) EffectiveScope(groupID string) (string, error) {
	reg, err := r.reg.Load()
	if err != nil {
		return "", err
	}
	if aid, ok := reg.GroupToAlliance[groupID]; ok {
		return aid, nil
	}
	return groupID, nil
}

// IsFederated reporta si el grupo pertenece a una alianza.
func (r *Resolver) IsFederated(groupID string) (bool, error) {
	scope, err := r.EffectiveScope(groupID)
	if err != nil {
		return false, err
	}
	return scope != groupID, nil
}
