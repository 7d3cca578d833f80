// Package ident генерирует непрозрачные идентификаторы с типовым префиксом.
package ident

import (
	"strings"

	"github.com/google/uuid"
)

// Префиксы сущностей; по префиксу видно, к какому типу относится идентификатор.
const (
	PrefixOrder   = "ord"
	PrefixPackage = "pkg"
	PrefixRoute   = "rt"
)

// New возвращает идентификатор вида `<prefix>_<uuid-без-дефисов>`.
func New(prefix string) string {
	return prefix + "_" + strings.ReplaceAll(uuid.NewString(), "-", "")
}

// Order возвращает идентификатор заказа.
func Order() string { return New(PrefixOrder) }

// Package возвращает идентификатор посылки.
func Package() string { return New(PrefixPackage) }

// Route возвращает идентификатор маршрута.
func Route() string { return New(PrefixRoute) }
