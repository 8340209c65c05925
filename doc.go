// Package iasys implements a multi-turn public-health assistant for the
// Brazilian SUS: onboarding, symptom triage, appointment scheduling and
// quick guidance, driven by a deterministic conversation state machine.
//
// Each session runs on its own actor; free text is mapped to canonical
// events by a small rule-based classifier, and language-model calls are
// confined to invoked analysis tasks so the conversation flow itself stays
// reproducible.
package iasys
