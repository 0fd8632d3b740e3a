package profile_test

import (
	"testing"

	"github.com/DGSSZ-PLIELab/SSL-OJ-sub000/internal/judge/profile"
	appErr "github.com/DGSSZ-PLIELab/SSL-OJ-sub000/pkg/errors"
)

func TestResolveKnownLanguage(t *testing.T) {
	registry := profile.NewRegistry(profile.DefaultProfiles())
	lang, err := registry.Resolve("cpp")
	if err != nil {
		t.Fatalf("resolve cpp: %v", err)
	}
	if lang.SourceFile != "main.cpp" || !lang.CompileEnabled {
		t.Fatalf("unexpected cpp profile: %+v", lang)
	}
}

func TestResolveFailsClosed(t *testing.T) {
	registry := profile.NewRegistry(profile.DefaultProfiles())
	_, err := registry.Resolve("brainfuck")
	if err == nil {
		t.Fatal("expected unsupported language error")
	}
	if !appErr.Is(err, appErr.LanguageNotSupported) {
		t.Fatalf("expected LanguageNotSupported, got %v", err)
	}
}

func TestResolveEmptyID(t *testing.T) {
	registry := profile.NewRegistry(profile.DefaultProfiles())
	if _, err := registry.Resolve(""); err == nil {
		t.Fatal("expected validation error for empty id")
	}
}

func TestRegistryOverride(t *testing.T) {
	profiles := append(profile.DefaultProfiles(), profile.LanguageProfile{
		ID:         "cpp",
		SourceFile: "solution.cpp",
	})
	registry := profile.NewRegistry(profiles)
	lang, err := registry.Resolve("cpp")
	if err != nil {
		t.Fatalf("resolve cpp: %v", err)
	}
	if lang.SourceFile != "solution.cpp" {
		t.Fatalf("expected override to win, got %s", lang.SourceFile)
	}
}

func TestBuildCommandExpansion(t *testing.T) {
	lang := profile.LanguageProfile{SourceFile: "main.cpp", BinaryFile: "main"}
	argv, err := profile.BuildCommand("g++ -O2 {src} -o {bin}", lang)
	if err != nil {
		t.Fatalf("build command: %v", err)
	}
	want := []string{"g++", "-O2", "main.cpp", "-o", "./main"}
	if len(argv) != len(want) {
		t.Fatalf("argv length %d, want %d: %v", len(argv), len(want), argv)
	}
	for i := range want {
		if argv[i] != want[i] {
			t.Fatalf("argv[%d] = %q, want %q", i, argv[i], want[i])
		}
	}
}

func TestBuildCommandQuotedArguments(t *testing.T) {
	lang := profile.LanguageProfile{SourceFile: "main.sh"}
	argv, err := profile.BuildCommand(`sh -c "exit 3"`, lang)
	if err != nil {
		t.Fatalf("build command: %v", err)
	}
	if len(argv) != 3 || argv[2] != "exit 3" {
		t.Fatalf("expected quoted argument preserved, got %v", argv)
	}
}

func TestBuildCommandEmptyTemplate(t *testing.T) {
	if _, err := profile.BuildCommand("   ", profile.LanguageProfile{}); err == nil {
		t.Fatal("expected error for empty template")
	}
}

func TestDefaultProfilesMultipliers(t *testing.T) {
	for _, lang := range profile.DefaultProfiles() {
		if lang.TimeMultiplier < 1 {
			t.Fatalf("%s: time multiplier below 1", lang.ID)
		}
		if lang.MemoryMultiplier < 1 {
			t.Fatalf("%s: memory multiplier below 1", lang.ID)
		}
		if lang.CompileEnabled && lang.BinaryFile == "" {
			t.Fatalf("%s: compiled language without binary artifact", lang.ID)
		}
	}
}
