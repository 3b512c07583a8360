package compiler

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/roach88/htn/internal/ir"
)

// WriteJSON writes the compiled domain artifact as indented JSON.
func WriteJSON(w io.Writer, d *Domain) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(d)
}

// WriteListing writes a human-readable dump of the compiled domain: name
// tables, signatures and the program of every case.
func WriteListing(w io.Writer, d *Domain) error {
	lw := &listingWriter{w: w}

	lw.printf("domain %s\n", d.Name)
	lw.printf("fingerprint %s\n\n", d.Fingerprint)

	lw.printf("facts (seed %d)\n", d.FactNames.Seed)
	for i, f := range d.Facts {
		lw.printf("  %3d %08x %s%s size=%d\n", i, d.FactNames.Hashes[i], f.Name, paramList(f.Params, f.Signature), f.Signature.Size)
	}

	lw.printf("\ntasks (seed %d)\n", d.TaskNames.Seed)
	for i, t := range d.Tasks {
		kind := "primitive"
		if !t.Primitive {
			kind = fmt.Sprintf("cases %d..%d", t.FirstCase, t.FirstCase+t.NumCases-1)
		}
		lw.printf("  %3d %08x %s%s size=%d %s\n", i, d.TaskNames.Hashes[i], t.Name, paramList(t.Params, t.Signature), t.Signature.Size, kind)
	}

	for ci, c := range d.Cases {
		task := d.Tasks[c.Task]
		lw.printf("\ncase %d: %s #%d\n", ci, task.Name, c.Index)

		inputs := make([]string, len(c.InputParams))
		for i, pi := range c.InputParams {
			inputs[i] = fmt.Sprintf("%s:%s@%d", task.Params[pi].Name, c.Inputs.Types[i], c.Inputs.Offsets[i])
		}
		lw.printf("  inputs  [%s] size=%d\n", strings.Join(inputs, " "), c.Inputs.Size)

		outputs := make([]string, len(c.OutputNames))
		for i, name := range c.OutputNames {
			outputs[i] = fmt.Sprintf("%s:%s@%d", name, c.Outputs.Types[i], c.Outputs.Offsets[i])
		}
		lw.printf("  outputs [%s] size=%d\n", strings.Join(outputs, " "), c.Outputs.Size)

		for di, conj := range c.Conjuncts {
			lits := make([]string, len(conj.Literals))
			for li, lit := range conj.Literals {
				lits[li] = literalListing(d, c, lit)
			}
			if len(lits) == 0 {
				lits = []string{"true"}
			}
			lw.printf("  pre[%d]  %s\n", di, strings.Join(lits, " & "))
		}
		if c.Guard != nil {
			lw.printf("  guard   %s\n", c.Guard.Source)
		}
		if c.Each {
			lw.printf("  each\n")
		}
		for _, call := range c.Calls {
			lw.printf("  do      %s\n", callListing(d, c, call))
		}
	}

	return lw.err
}

type listingWriter struct {
	w   io.Writer
	err error
}

func (lw *listingWriter) printf(format string, args ...any) {
	if lw.err != nil {
		return
	}
	_, lw.err = fmt.Fprintf(lw.w, format, args...)
}

func paramList(params []ir.Param, sig ir.Signature) string {
	parts := make([]string, len(params))
	for i, p := range params {
		parts[i] = fmt.Sprintf("%s:%s@%d", p.Name, p.Type, sig.Offsets[i])
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

func literalListing(d *Domain, c Case, lit LiteralProgram) string {
	fields := make([]string, len(lit.Fields))
	for i, op := range lit.Fields {
		switch op.Kind {
		case OpAny:
			fields[i] = Wildcard
		case OpInput:
			fields[i] = d.Tasks[c.Task].Params[c.InputParams[op.Slot]].Name
		case OpOutput:
			fields[i] = "=" + c.OutputNames[op.Slot]
		case OpBind:
			fields[i] = "?" + c.OutputNames[op.Slot]
		case OpConst:
			fields[i] = op.Const.String()
		case OpExpr:
			fields[i] = "=(" + op.Expr.Source + ")"
		}
	}
	s := d.Facts[lit.Fact].Name + "(" + strings.Join(fields, ", ") + ")"
	if lit.Negated {
		s = "!" + s
	}
	return s
}

func callListing(d *Domain, c Case, call CallProgram) string {
	args := make([]string, len(call.Args))
	for i, a := range call.Args {
		switch a.Kind {
		case ArgParam:
			args[i] = d.Tasks[c.Task].Params[a.Slot].Name
		case ArgOutput:
			args[i] = c.OutputNames[a.Slot]
		case ArgConst:
			args[i] = a.Const.String()
		case ArgExpr:
			args[i] = "(" + a.Expr.Source + ")"
		}
	}
	return d.Tasks[call.Task].Name + "(" + strings.Join(args, ", ") + ")"
}
