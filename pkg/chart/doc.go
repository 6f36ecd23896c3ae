// Package chart renders and verifies the embedded general-healthcheck Helm
// chart.
//
// Rendering uses the Helm SDK directly, so the output matches what
// `helm template` would produce for the same release name, namespace and
// overrides:
//
//	m, err := chart.Render(chart.RenderOptions{
//	    ReleaseName: "general-healthcheck",
//	    Set:         []string{"image.tag=3f9c2e1"},
//	})
//	if err != nil {
//	    return err
//	}
//	if err := chart.Verify(m); err != nil {
//	    return err
//	}
//	fmt.Print(m.String())
//
// Helpers reimplements the named templates in _helpers.tpl. Verify compares
// the rendered DaemonSet against them and against the invariants the
// pipeline and the kubelet rely on.
package chart
