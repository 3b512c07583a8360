package compiler

import "github.com/roach88/htn/internal/ir"

// Layout computes a Signature for fields in declaration order. Each field is
// placed at the next offset aligned to its natural alignment; the total size
// is rounded up to the largest alignment. An empty field list has size 0.
func Layout(types []ir.FieldType) (ir.Signature, error) {
	sig := ir.Signature{
		Types:   append([]ir.FieldType{}, types...),
		Offsets: make([]int, len(types)),
	}

	offset, maxAlign := 0, 1
	for i, t := range types {
		if !t.Valid() {
			return ir.Signature{}, &LayoutError{Field: i, Type: t}
		}
		align := t.Align()
		offset = alignUp(offset, align)
		sig.Offsets[i] = offset
		offset += t.Size()
		maxAlign = max(maxAlign, align)
	}
	sig.Size = alignUp(offset, maxAlign)
	return sig, nil
}

func alignUp(n, align int) int {
	return (n + align - 1) / align * align
}

func paramTypes(params []ir.Param) []ir.FieldType {
	types := make([]ir.FieldType, len(params))
	for i, p := range params {
		types[i] = p.Type
	}
	return types
}

// SignatureTable holds every layout the planner needs.
type SignatureTable struct {
	Facts []ir.Signature `json:"facts"`
	// Tasks is indexed by global task index: primitives first, then
	// composites.
	Tasks []ir.Signature `json:"tasks"`
	// CaseOutputs and CaseInputs are indexed by global case index.
	CaseOutputs []ir.Signature `json:"case_outputs"`
	CaseInputs  []ir.Signature `json:"case_inputs"`
}

// BuildSignatures lays out every fact, task parameter list, case output set
// and case input set of a validated domain. Tasks come first, then case
// outputs, then case inputs, each in declaration order.
func BuildSignatures(d *ir.Domain) (*SignatureTable, error) {
	scopes, err := caseScopes(d)
	if err != nil {
		return nil, err
	}
	return buildSignatures(d, scopes)
}

func buildSignatures(d *ir.Domain, scopes []*caseScope) (*SignatureTable, error) {
	st := &SignatureTable{}

	for _, f := range d.Facts {
		sig, err := Layout(paramTypes(f.Params))
		if err != nil {
			return nil, err
		}
		st.Facts = append(st.Facts, sig)
	}
	for _, p := range d.Primitives {
		sig, err := Layout(paramTypes(p.Params))
		if err != nil {
			return nil, err
		}
		st.Tasks = append(st.Tasks, sig)
	}
	for _, t := range d.Tasks {
		sig, err := Layout(paramTypes(t.Params))
		if err != nil {
			return nil, err
		}
		st.Tasks = append(st.Tasks, sig)
	}
	for _, s := range scopes {
		sig, err := Layout(paramTypes(s.outputs))
		if err != nil {
			return nil, err
		}
		st.CaseOutputs = append(st.CaseOutputs, sig)
	}
	for _, s := range scopes {
		types := make([]ir.FieldType, len(s.inputs))
		for i, pi := range s.inputs {
			types[i] = s.params[pi].Type
		}
		sig, err := Layout(types)
		if err != nil {
			return nil, err
		}
		st.CaseInputs = append(st.CaseInputs, sig)
	}
	return st, nil
}

// caseScopes analyzes every case in global case order.
func caseScopes(d *ir.Domain) ([]*caseScope, error) {
	idx := newDeclIndex(d)
	var scopes []*caseScope
	var errs ValidationErrors
	for _, t := range d.Tasks {
		for j := range t.Cases {
			s, caseErrs := analyzeCase(idx, t.Params, &t.Cases[j], t.Name)
			errs = append(errs, caseErrs...)
			scopes = append(scopes, s)
		}
	}
	if len(errs) > 0 {
		return nil, errs
	}
	return scopes, nil
}
