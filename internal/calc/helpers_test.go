package calc

import (
	"normcalc/internal/domain"
	"normcalc/internal/norms"
)

func material(code string) domain.Material {
	return domain.Material{Code: code, Name: code, Unit: "pcs"}
}

func norm(contextType, code, formula string) domain.MaterialNorm {
	return domain.MaterialNorm{ContextType: contextType, Material: material(code), Formula: formula}
}

func registry(ns ...domain.MaterialNorm) *norms.Snapshot {
	return norms.NewSnapshot(nil, ns)
}

// catalog builds a lookup holding materials with the given codes
func catalog(codes ...string) *norms.Snapshot {
	materials := make([]domain.Material, len(codes))
	for i, code := range codes {
		materials[i] = material(code)
	}
	return norms.NewSnapshot(materials, nil)
}
