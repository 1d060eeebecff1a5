// # internal/engine/style/style_test.go
package style

import (
	"testing"

	"exportfix/internal/engine/rewrite"
	"exportfix/internal/engine/scanner"
)

func planExports(t *testing.T, policy Policy, path, src string) (string, []string) {
	t.Helper()
	s := scanner.NewScanner(scanner.NewGrammarLoader(true))
	scan, err := s.ScanFile(path, []byte(src))
	if err != nil {
		t.Fatal(err)
	}
	b := rewrite.NewBuffer([]byte(src))
	records := b.Apply(NewClassifier(policy).PlanExports(scan))
	var descs []string
	for _, r := range records {
		descs = append(descs, r.Description)
	}
	return string(b.Bytes()), descs
}

func planImports(t *testing.T, policy Policy, path, src string) (string, []string) {
	t.Helper()
	s := scanner.NewScanner(scanner.NewGrammarLoader(true))
	scan, err := s.ScanFile(path, []byte(src))
	if err != nil {
		t.Fatal(err)
	}
	b := rewrite.NewBuffer([]byte(src))
	records := b.Apply(NewClassifier(policy).PlanImports(scan))
	var descs []string
	for _, r := range records {
		descs = append(descs, r.Description)
	}
	return string(b.Bytes()), descs
}

func TestPlanExportsBasenameDefault(t *testing.T) {
	// The basename alone forces the conversion, no policy entry needed.
	got, descs := planExports(t, NewPolicy(nil, nil), "Foo.js",
		"export default Foo;\nclass Foo {}\n")
	if got != "export { Foo };\nclass Foo {}\n" {
		t.Errorf("got %q", got)
	}
	if len(descs) != 1 || descs[0] != "Default to Named export: Foo" {
		t.Errorf("unexpected changes: %v", descs)
	}
}

func TestPlanExportsForcedNamed(t *testing.T) {
	got, _ := planExports(t, NewPolicy(nil, []string{"Theme"}), "app.js",
		"export default Theme;\n")
	if got != "export { Theme };\n" {
		t.Errorf("got %q", got)
	}
}

func TestPlanExportsDefaultClassForm(t *testing.T) {
	got, descs := planExports(t, NewPolicy(nil, nil), "Foo.js",
		"export default class Foo {}\n")
	if got != "export class Foo {}\n" {
		t.Errorf("got %q", got)
	}
	if len(descs) != 1 || descs[0] != "Default to Named export: Foo" {
		t.Errorf("unexpected changes: %v", descs)
	}
}

func TestPlanExportsBlockedByOtherDeclaration(t *testing.T) {
	src := "export default Foo;\nexport { Foo };\n"
	got, descs := planExports(t, NewPolicy(nil, nil), "Foo.js", src)
	if got != src {
		t.Errorf("duplicate resolver owns this case, got %q", got)
	}
	if len(descs) != 0 {
		t.Errorf("unexpected changes: %v", descs)
	}
}

func TestPlanExportsAnonymousUntouched(t *testing.T) {
	for _, src := range []string{
		"export default function () {}\n",
		"export default () => {};\n",
		"export default { name: 'Foo' };\n",
	} {
		got, descs := planExports(t, NewPolicy(nil, []string{"Foo"}), "Foo.js", src)
		if got != src {
			t.Errorf("anonymous default must survive, got %q from %q", got, src)
		}
		if len(descs) != 0 {
			t.Errorf("unexpected changes for %q: %v", src, descs)
		}
	}
}

func TestPlanExportsClassToNamed(t *testing.T) {
	got, descs := planExports(t, NewPolicy(nil, []string{"Widget"}), "ui.js",
		"export class Widget {}\nconst x = 1;\n")
	if got != "class Widget {}\nconst x = 1;\n\nexport { Widget };\n" {
		t.Errorf("got %q", got)
	}
	if len(descs) != 1 || descs[0] != "Class export to Named: Widget" {
		t.Errorf("unexpected changes: %v", descs)
	}
}

func TestPlanExportsClassToNamedBlocked(t *testing.T) {
	src := "export class Widget {}\nexport { Widget };\n"
	got, descs := planExports(t, NewPolicy(nil, []string{"Widget"}), "ui.js", src)
	if got != src {
		t.Errorf("got %q", got)
	}
	if len(descs) != 0 {
		t.Errorf("unexpected changes: %v", descs)
	}
}

func TestPlanKeepDefault(t *testing.T) {
	policy := NewPolicy([]string{"Button"}, nil)

	t.Run("ExportedClass", func(t *testing.T) {
		got, descs := planExports(t, policy, "src/Button.js",
			"export class Button {}\n")
		if got != "export default class Button {}\n" {
			t.Errorf("got %q", got)
		}
		if len(descs) != 1 || descs[0] != "Class to Default export: Button" {
			t.Errorf("unexpected changes: %v", descs)
		}
	})

	t.Run("DestructuredBareClass", func(t *testing.T) {
		got, descs := planExports(t, policy, "src/Button.js",
			"class Button {}\n\nexport { Button };\n")
		if got != "export default class Button {}\n\n\n" {
			t.Errorf("got %q", got)
		}
		want := []string{"Removed named export for Button", "Added default export for Button"}
		if len(descs) != 2 || descs[0] != want[0] || descs[1] != want[1] {
			t.Errorf("unexpected changes: %v", descs)
		}
	})

	t.Run("PartialList", func(t *testing.T) {
		got, descs := planExports(t, policy, "src/Button.js",
			"class Button {}\nexport { Button, helper };\n")
		if got != "export default class Button {}\nexport { helper };\n" {
			t.Errorf("got %q", got)
		}
		want := []string{"Removed Button from named exports", "Added default export for Button"}
		if len(descs) != 2 || descs[0] != want[0] || descs[1] != want[1] {
			t.Errorf("unexpected changes: %v", descs)
		}
	})

	t.Run("AlreadyDefault", func(t *testing.T) {
		src := "export default class Button {}\n"
		got, descs := planExports(t, policy, "src/Button.js", src)
		if got != src {
			t.Errorf("got %q", got)
		}
		if len(descs) != 0 {
			t.Errorf("unexpected changes: %v", descs)
		}
	})

	t.Run("NoClassNoAction", func(t *testing.T) {
		src := "export const Button = () => {};\n"
		got, descs := planExports(t, policy, "src/Button.js", src)
		if got != src {
			t.Errorf("got %q", got)
		}
		if len(descs) != 0 {
			t.Errorf("unexpected changes: %v", descs)
		}
	})
}

func TestPlanImports(t *testing.T) {
	t.Run("DefaultToNamed", func(t *testing.T) {
		got, descs := planImports(t, NewPolicy(nil, []string{"Theme"}), "app.js",
			"import Theme from './Theme.js';\n")
		if got != "import { Theme } from './Theme.js';\n" {
			t.Errorf("got %q", got)
		}
		if len(descs) != 1 || descs[0] != "Import modernized: Theme" {
			t.Errorf("unexpected changes: %v", descs)
		}
	})

	t.Run("NamedToDefault", func(t *testing.T) {
		got, descs := planImports(t, NewPolicy([]string{"Button"}, nil), "app.js",
			"import { Button } from './Button.js';\n")
		if got != "import Button from './Button.js';\n" {
			t.Errorf("got %q", got)
		}
		if len(descs) != 1 || descs[0] != "Base class import fixed: Button" {
			t.Errorf("unexpected changes: %v", descs)
		}
	})

	t.Run("MultiNameListUntouched", func(t *testing.T) {
		src := "import { Button, extra } from './Button.js';\n"
		got, _ := planImports(t, NewPolicy([]string{"Button"}, nil), "app.js", src)
		if got != src {
			t.Errorf("got %q", got)
		}
	})

	t.Run("AliasUntouched", func(t *testing.T) {
		src := "import { Button as B } from './Button.js';\n"
		got, _ := planImports(t, NewPolicy([]string{"Button"}, nil), "app.js", src)
		if got != src {
			t.Errorf("got %q", got)
		}
	})

	t.Run("UnlistedUntouched", func(t *testing.T) {
		src := "import Theme from './Theme.js';\n"
		got, _ := planImports(t, NewPolicy(nil, nil), "app.js", src)
		if got != src {
			t.Errorf("got %q", got)
		}
	})
}

func TestModuleBasename(t *testing.T) {
	cases := map[string]string{
		"src/Button.js":     "Button",
		"Button.test.js":    "Button.test",
		"/deep/path/app.ts": "app",
		"UIComponent.jsx":   "UIComponent",
	}
	for path, want := range cases {
		if got := ModuleBasename(path); got != want {
			t.Errorf("ModuleBasename(%q) = %q, want %q", path, got, want)
		}
	}
}
