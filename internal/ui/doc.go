// Package ui is Nevu's terminal interface, built on Bubble Tea.
//
// The UI owns no data. It reads snapshots from the stores it is given and
// redraws when any of them changes: Run subscribes to every store and turns
// each burst of changes into a single storesChangedMsg, so a store mutation
// never blocks on the render loop.
//
// Views:
//
//   - Home: the continue watching list, most recent first, with progress
//   - Search: a query box wired to the search controller, categories first
//   - Libraries: library sections, fetched on the first visit
//   - Settings: the account settings as name and value
//
// Enter on a category or library lists its items. Enter on a setting opens
// an editor that writes the new value through the settings store.
//
// Keys are defined in keys.go and listed by the ? overlay. The T key cycles
// themes and the choice is saved with the other preferences.
package ui
