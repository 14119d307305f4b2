package post

import (
	"errors"
	"testing"
)

const sampleSource = `---
title: Shipping a Side Project
description: Notes on finishing things
slug: /shipping-a-side-project/
image: https://cdn.example.com/cover.png
image_attribution: Photo by Someone
categories:
  - engineering
tags:
  - side projects
  - 2024
layout: post
---
The body starts here.
`

func TestParseExtractsFrontMatter(t *testing.T) {
	parsed, err := Parse([]byte(sampleSource))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	meta := parsed.FrontMatter
	if meta.Title != "Shipping a Side Project" {
		t.Fatalf("expected title, got %q", meta.Title)
	}
	if meta.Description != "Notes on finishing things" {
		t.Fatalf("expected description, got %q", meta.Description)
	}
	if meta.Image != "https://cdn.example.com/cover.png" {
		t.Fatalf("expected image, got %q", meta.Image)
	}
	if len(meta.Categories) != 1 || meta.Categories[0] != "engineering" {
		t.Fatalf("expected categories [engineering], got %v", meta.Categories)
	}
	if len(meta.Tags) != 2 || meta.Tags[1] != "2024" {
		t.Fatalf("expected numeric tag coerced to string, got %v", meta.Tags)
	}
	if meta.Custom["layout"] != "post" {
		t.Fatalf("expected custom layout preserved, got %v", meta.Custom)
	}
	if parsed.Body != "The body starts here.\n" {
		t.Fatalf("expected body without delimiters, got %q", parsed.Body)
	}
}

func TestParseRequiresTitle(t *testing.T) {
	source := "---\ndescription: no title here\n---\nbody\n"
	if _, err := Parse([]byte(source)); !errors.Is(err, ErrTitleRequired) {
		t.Fatalf("expected ErrTitleRequired, got %v", err)
	}
}

func TestParseDerivesSlugFromTitle(t *testing.T) {
	source := "---\ntitle: Hello, World! Again\n---\nbody\n"
	parsed, err := Parse([]byte(source))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if parsed.FrontMatter.Slug == "" {
		t.Fatal("expected derived slug")
	}
	if parsed.FrontMatter.Slug != "hello-world-again" {
		t.Fatalf("expected normalized slug, got %q", parsed.FrontMatter.Slug)
	}
}

func TestRelativeURLTrimsSlashes(t *testing.T) {
	p := &Post{FrontMatter: FrontMatter{Slug: "/shipping-a-side-project/"}}
	if got := p.RelativeURL(); got != "/shipping-a-side-project" {
		t.Fatalf("expected /shipping-a-side-project, got %q", got)
	}

	p = &Post{FrontMatter: FrontMatter{Slug: "plain-slug"}}
	if got := p.RelativeURL(); got != "/plain-slug" {
		t.Fatalf("expected /plain-slug, got %q", got)
	}
}
