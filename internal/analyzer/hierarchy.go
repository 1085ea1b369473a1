package analyzer

import "github.com/olehluchkiv/classgraph/internal/model"

// BuildHierarchy registers every descriptor by name, links each class to its
// superclass when the superclass is itself analyzed, and buckets classes by
// package. Descriptors must have unique names; see Filter.
func BuildHierarchy(descs []model.ClassDescriptor) *Hierarchy {
	h := &Hierarchy{
		Classes:  make(map[string]*model.ClassDescriptor, len(descs)),
		ParentOf: make(map[string]string),
		Packages: make(map[string][]*model.ClassDescriptor),
	}
	for i := range descs {
		d := &descs[i]
		if _, dup := h.Classes[d.Name]; dup {
			continue
		}
		h.Classes[d.Name] = d
		pkg := model.PackageOf(d.Name)
		h.Packages[pkg] = append(h.Packages[pkg], d)
	}
	for name, d := range h.Classes {
		if d.SuperName == "" {
			continue
		}
		// Superclasses outside the analyzed set (platform or library types) are omitted.
		if _, ok := h.Classes[d.SuperName]; ok {
			h.ParentOf[name] = d.SuperName
		}
	}
	return h
}

// Parent returns the analyzed superclass of name, if any.
func (h *Hierarchy) Parent(name string) (*model.ClassDescriptor, bool) {
	parent, ok := h.ParentOf[name]
	if !ok {
		return nil, false
	}
	return h.Classes[parent], true
}
