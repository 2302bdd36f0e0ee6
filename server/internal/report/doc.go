// Package report renders a stored result card as a single A4 PDF document:
// university heading, student details, the subject table and a footer
// disclaimer on every page.
package report
