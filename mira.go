// Package mira turns a web page into a single AI-consumable text document.
// It extracts the page's readable content, selects a few representative
// images, asks multimodal models to describe them, and assembles title,
// body and image descriptions into one string.
//
// This package contains domain types and interfaces following Ben Johnson's
// Standard Package Layout. Implementations live in subdirectories named
// after their primary dependency (e.g., gemini/, readability/, rod/).
package mira
