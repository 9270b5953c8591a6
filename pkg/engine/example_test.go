/*
 * Copyright (c) 2025-present unTill Software Development Group B.V.
 */

package engine_test

import (
	"context"
	"fmt"

	"github.com/untillpro/goutils/logger"

	"github.com/voedger/fieldflow/pkg/engine"
	"github.com/voedger/fieldflow/pkg/fielddef"
	"github.com/voedger/fieldflow/pkg/in10n"
	"github.com/voedger/fieldflow/pkg/in10nmem"
	"github.com/voedger/fieldflow/pkg/istorage"
	"github.com/voedger/fieldflow/pkg/istorage/mem"
	"github.com/voedger/fieldflow/pkg/istructsmem"
)

func Example() {
	logger.SetLogLevel(logger.LogLevelNone)
	ctx := context.Background()

	storage, err := istructsmem.Open(mem.Provide(), istorage.MustSafeName("example"), 0)
	if err != nil {
		panic(err)
	}
	e, err := engine.Provide(ctx, engine.Config{}, storage, in10nmem.Provide(in10n.DefaultQuotas))
	if err != nil {
		panic(err)
	}
	defer e.Close()

	must := func(_ any, err error) {
		if err != nil {
			panic(err)
		}
	}
	text := func(id fielddef.FieldID) *fielddef.Field {
		return &fielddef.Field{ID: id, Name: string(id), Kind: fielddef.FieldKind_Value, CellType: fielddef.CellType_Text}
	}

	must(e.CreateTable(ctx, &fielddef.Table{ID: "tblProducts", Name: "Products"}, text("fldProduct")))
	must(e.CreateTable(ctx, &fielddef.Table{ID: "tblInvoices", Name: "Invoices"}, text("fldInvoice")))
	must(e.CreateField(ctx, &fielddef.Field{ID: "fldPrice", Table: "tblProducts", Name: "Price",
		Kind: fielddef.FieldKind_Value, CellType: fielddef.CellType_Number}))
	must(e.CreateField(ctx, &fielddef.Field{ID: "fldProducts", Table: "tblInvoices", Name: "Products", Kind: fielddef.FieldKind_Link,
		Options: &fielddef.LinkOptions{Relationship: fielddef.Relationship_ManyMany, ForeignTable: "tblProducts"}}))
	must(e.CreateField(ctx, &fielddef.Field{ID: "fldAmount", Table: "tblInvoices", Name: "Amount", Kind: fielddef.FieldKind_Rollup,
		Options: &fielddef.RollupOptions{
			LookupOptions: fielddef.LookupOptions{ForeignTable: "tblProducts", LinkField: "fldProducts", LookupField: "fldPrice"},
			Expression:    "sum({values})",
		}}))

	tea, err := e.CreateRecord(ctx, "tblProducts", map[fielddef.FieldID]any{"fldProduct": "Tea", "fldPrice": 2.5})
	if err != nil {
		panic(err)
	}
	cake, err := e.CreateRecord(ctx, "tblProducts", map[fielddef.FieldID]any{"fldProduct": "Cake", "fldPrice": 4})
	if err != nil {
		panic(err)
	}
	invoice, err := e.CreateRecord(ctx, "tblInvoices", map[fielddef.FieldID]any{
		"fldInvoice":  "INV-1",
		"fldProducts": []fielddef.RecordID{tea.ID, cake.ID},
	})
	if err != nil {
		panic(err)
	}
	fmt.Println(fielddef.ToText(invoice.Get("fldProducts")), "amount:", invoice.Get("fldAmount"))

	must(e.UpdateRecord(ctx, "tblProducts", cake.ID, map[fielddef.FieldID]any{"fldPrice": 5}))
	invoice, err = e.Record(ctx, "tblInvoices", invoice.ID)
	if err != nil {
		panic(err)
	}
	fmt.Println("amount after price change:", invoice.Get("fldAmount"))

	if err := e.DeleteField(ctx, "fldPrice"); err != nil {
		panic(err)
	}
	amount, err := e.Field(ctx, "fldAmount")
	if err != nil {
		panic(err)
	}
	fmt.Println("amount has error:", amount.HasError)

	// Output:
	// Tea, Cake amount: 6.5
	// amount after price change: 7.5
	// amount has error: true
}
