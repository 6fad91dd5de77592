package objmodel

import "fmt"

// Host default slot implementations. Synthesized types fall back to
// these when no trampoline claims a slot, and the ledger restores them
// during reset.

// VisitFunc receives each cross-domain edge during traversal.
type VisitFunc func(word uint64)

// subtypeTraverse reports the instance's foreign-handle edge to the
// collector's visit callback.
func (rt *Runtime) subtypeTraverse(recv any, args ...any) (any, error) {
	inst, ok := recv.(*Instance)
	if !ok {
		return nil, fmt.Errorf("tp_traverse: receiver is %T, not an instance", recv)
	}
	if len(args) < 1 {
		return nil, fmt.Errorf("tp_traverse: missing visit callback")
	}
	visit, ok := args[0].(VisitFunc)
	if !ok {
		return nil, fmt.Errorf("tp_traverse: visit callback is %T", args[0])
	}
	if w := inst.ForeignHandle(); w != 0 {
		visit(w)
	}
	return nil, nil
}

// subtypeClear severs the instance's foreign-handle edge, releasing the
// handle back into the foreign domain. Returns the severed word.
func (rt *Runtime) subtypeClear(recv any, args ...any) (any, error) {
	inst, ok := recv.(*Instance)
	if !ok {
		return nil, fmt.Errorf("tp_clear: receiver is %T, not an instance", recv)
	}
	w := inst.ForeignHandle()
	if w == 0 {
		return uint64(0), nil
	}
	if err := inst.SetForeignHandle(0); err != nil {
		return nil, err
	}
	if rt.releaser != nil {
		rt.releaser.ReleaseHandle(w)
	}
	return w, nil
}

// objectDealloc clears the foreign edge and abandons the storage.
func (rt *Runtime) objectDealloc(recv any, args ...any) (any, error) {
	if inst, ok := recv.(*Instance); ok && inst.ForeignHandle() != 0 {
		return rt.subtypeClear(recv)
	}
	return nil, nil
}

// objectFree is the base object storage release. The model heap is Go
// managed, so there is nothing to do.
func (rt *Runtime) objectFree(recv any, args ...any) (any, error) {
	return nil, nil
}

// genericNew allocates an uninitialized instance of the receiver type.
func (rt *Runtime) genericNew(recv any, args ...any) (any, error) {
	t, ok := recv.(*TypeObject)
	if !ok {
		return nil, fmt.Errorf("tp_new: receiver is %T, not a type", recv)
	}
	if !t.IsReady() {
		return nil, fmt.Errorf("tp_new: type %q is not ready", t.Name)
	}
	return rt.NewInstance(t), nil
}

// genericGetattr looks an attribute up on the instance dict first, then
// along the type's base chain.
func (rt *Runtime) genericGetattr(recv any, args ...any) (any, error) {
	if len(args) < 1 {
		return nil, fmt.Errorf("tp_getattro: missing attribute name")
	}
	name, ok := args[0].(string)
	if !ok {
		return nil, fmt.Errorf("tp_getattro: attribute name is %T", args[0])
	}

	var t *TypeObject
	switch r := recv.(type) {
	case *Instance:
		if v, ok := r.Dict[name]; ok {
			return v, nil
		}
		t = r.Type
	case *TypeObject:
		t = r
	default:
		return nil, fmt.Errorf("tp_getattro: receiver is %T", recv)
	}

	if v, ok := lookupMRO(t, name); ok {
		return v, nil
	}
	return nil, fmt.Errorf("attribute %q not found", name)
}

// genericSetattr stores an attribute on the receiver's dict.
func (rt *Runtime) genericSetattr(recv any, args ...any) (any, error) {
	if len(args) < 2 {
		return nil, fmt.Errorf("tp_setattro: want name and value")
	}
	name, ok := args[0].(string)
	if !ok {
		return nil, fmt.Errorf("tp_setattro: attribute name is %T", args[0])
	}

	switch r := recv.(type) {
	case *Instance:
		if r.Dict == nil {
			return nil, fmt.Errorf("instance of %q has no attribute dict", r.Type.Name)
		}
		r.Dict[name] = args[1]
	case *TypeObject:
		r.Dict[name] = args[1]
		rt.NotifyTypeChanged(r)
	default:
		return nil, fmt.Errorf("tp_setattro: receiver is %T", recv)
	}
	return nil, nil
}

// lookupMRO walks the primary base chain, then the auxiliary bases of
// each level in order.
func lookupMRO(t *TypeObject, name string) (any, bool) {
	for cur := t; cur != nil; cur = cur.Base {
		if v, ok := cur.Dict[name]; ok {
			return v, true
		}
		for _, aux := range cur.BasesAux {
			if v, ok := lookupMRO(aux, name); ok {
				return v, true
			}
		}
	}
	return nil, false
}
