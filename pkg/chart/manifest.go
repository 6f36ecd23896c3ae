package chart

import (
	"bytes"
	"fmt"
	"regexp"
	"sort"
	"strings"

	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"sigs.k8s.io/yaml"
)

var documentSeparator = regexp.MustCompile(`(?m)^---\s*$`)

// Manifest is the output of one render.
type Manifest struct {
	Release   string
	Namespace string

	// Files maps template path to rendered content. Empty renders are omitted.
	Files map[string]string

	// Helpers are the helper values the render should have used.
	Helpers Helpers
}

// String joins every rendered file into one multi-document YAML stream,
// ordered by template path, like helm template.
func (m *Manifest) String() string {
	names := make([]string, 0, len(m.Files))
	for name := range m.Files {
		names = append(names, name)
	}
	sort.Strings(names)

	var b bytes.Buffer
	for _, name := range names {
		fmt.Fprintf(&b, "---\n# Source: %s\n%s\n", name, strings.TrimSpace(m.Files[name]))
	}
	return b.String()
}

// Documents returns every non-empty YAML document in the manifest.
func (m *Manifest) Documents() []string {
	var docs []string
	for _, content := range m.Files {
		for _, doc := range documentSeparator.Split(content, -1) {
			if strings.TrimSpace(doc) != "" {
				docs = append(docs, doc)
			}
		}
	}
	sort.Strings(docs)
	return docs
}

// find decodes the first document of the given kind into out.
func (m *Manifest) find(kind string, out any) error {
	for _, doc := range m.Documents() {
		var meta metav1.TypeMeta
		if err := yaml.Unmarshal([]byte(doc), &meta); err != nil {
			return fmt.Errorf("failed to decode manifest: %w", err)
		}
		if meta.Kind != kind {
			continue
		}
		if err := yaml.UnmarshalStrict([]byte(doc), out); err != nil {
			return fmt.Errorf("failed to decode %s: %w", kind, err)
		}
		return nil
	}
	return fmt.Errorf("no %s in manifest", kind)
}

// DaemonSet decodes the rendered DaemonSet.
func (m *Manifest) DaemonSet() (*appsv1.DaemonSet, error) {
	ds := &appsv1.DaemonSet{}
	if err := m.find("DaemonSet", ds); err != nil {
		return nil, err
	}
	return ds, nil
}

// ConfigMap decodes the rendered ConfigMap, present when config.create is set.
func (m *Manifest) ConfigMap() (*corev1.ConfigMap, error) {
	cm := &corev1.ConfigMap{}
	if err := m.find("ConfigMap", cm); err != nil {
		return nil, err
	}
	return cm, nil
}

// ServiceAccount decodes the rendered ServiceAccount, present when
// serviceAccount.create is set.
func (m *Manifest) ServiceAccount() (*corev1.ServiceAccount, error) {
	sa := &corev1.ServiceAccount{}
	if err := m.find("ServiceAccount", sa); err != nil {
		return nil, err
	}
	return sa, nil
}
