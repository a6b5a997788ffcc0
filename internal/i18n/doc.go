// Package i18n chooses and persists the user interface language.
//
// The supported languages are fixed. On start-up ResolveInitial prefers a
// previously stored choice, then the best match for the caller's preferred
// locale (an Accept-Language style string), then English. Every later change
// made through OnLocaleChange is persisted.
//
// Persistence is optional: a Resolver built with a nil Store keeps the
// choice in memory only.
package i18n
