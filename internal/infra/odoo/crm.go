package odoo

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

type Contact struct {
	Name  string
	Email string
	Phone string
}

type LeadInput struct {
	Title       string
	Contact     Contact
	PartnerID   int64
	Description string
	Source      string
	BudgetUSD   float64
}

type OrderLine struct {
	ProductCode string // product.product default_code
	Name        string
	PriceUnit   float64
	Quantity    float64
}

type SaleOrderInput struct {
	PartnerID int64
	Reference string
	Lines     []OrderLine
}

// UpsertPartner finds res.partner by email or creates it.
func (c *Client) UpsertPartner(ctx context.Context, ct Contact) (int64, error) {
	email := strings.ToLower(strings.TrimSpace(ct.Email))
	if email == "" {
		return 0, fmt.Errorf("odoo partner: email required")
	}

	id, err := c.searchOne(ctx, "res.partner", []interface{}{[]interface{}{"email", "=ilike", email}})
	if err == nil {
		if ct.Phone != "" {
			if err := c.write(ctx, "res.partner", id, map[string]interface{}{"phone": ct.Phone}); err != nil {
				c.log.Warn().Err(err).Int64("partner_id", id).Msg("partner phone update failed")
			}
		}
		return id, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return 0, err
	}

	name := strings.TrimSpace(ct.Name)
	if name == "" {
		name = email
	}
	values := map[string]interface{}{"name": name, "email": email}
	if ct.Phone != "" {
		values["phone"] = ct.Phone
	}
	return c.create(ctx, "res.partner", values)
}

// CreateLead creates a crm.lead, linking the partner when known.
func (c *Client) CreateLead(ctx context.Context, in LeadInput) (int64, error) {
	values := map[string]interface{}{
		"name":         in.Title,
		"contact_name": in.Contact.Name,
		"email_from":   in.Contact.Email,
		"description":  in.Description,
		"type":         "lead",
	}
	if in.Contact.Phone != "" {
		values["phone"] = in.Contact.Phone
	}
	if in.PartnerID != 0 {
		values["partner_id"] = in.PartnerID
	}
	if in.BudgetUSD > 0 {
		values["expected_revenue"] = in.BudgetUSD
	}
	if in.Source != "" {
		values["referred"] = in.Source
	}
	return c.create(ctx, "crm.lead", values)
}

// UpdateLeadStage moves a crm.lead to the stage with the given name.
func (c *Client) UpdateLeadStage(ctx context.Context, leadID int64, stage string) error {
	stageID, err := c.searchOne(ctx, "crm.stage", []interface{}{[]interface{}{"name", "=ilike", stage}})
	if err != nil {
		return fmt.Errorf("odoo stage %q: %w", stage, err)
	}
	return c.write(ctx, "crm.lead", leadID, map[string]interface{}{"stage_id": stageID})
}

// MarkLeadLost archives the lead as lost.
func (c *Client) MarkLeadLost(ctx context.Context, leadID int64) error {
	return c.ExecuteKW(ctx, "crm.lead", "action_set_lost", []interface{}{[]int64{leadID}}, nil, nil)
}

// CreateSaleOrder creates and confirms a sale.order. Lines reference products
// by internal reference.
func (c *Client) CreateSaleOrder(ctx context.Context, in SaleOrderInput) (int64, error) {
	lines := make([]interface{}, 0, len(in.Lines))
	for _, l := range in.Lines {
		productID, err := c.searchOne(ctx, "product.product", []interface{}{[]interface{}{"default_code", "=", l.ProductCode}})
		if err != nil {
			return 0, fmt.Errorf("odoo product %q: %w", l.ProductCode, err)
		}
		qty := l.Quantity
		if qty == 0 {
			qty = 1
		}
		lines = append(lines, []interface{}{0, 0, map[string]interface{}{
			"product_id":      productID,
			"name":            l.Name,
			"price_unit":      l.PriceUnit,
			"product_uom_qty": qty,
		}})
	}

	orderID, err := c.create(ctx, "sale.order", map[string]interface{}{
		"partner_id":       in.PartnerID,
		"client_order_ref": in.Reference,
		"order_line":       lines,
	})
	if err != nil {
		return 0, err
	}

	if err := c.ExecuteKW(ctx, "sale.order", "action_confirm", []interface{}{[]int64{orderID}}, nil, nil); err != nil {
		return orderID, fmt.Errorf("confirm sale order %d: %w", orderID, err)
	}
	return orderID, nil
}

// SetMembershipLevel writes the custom membership field on the partner.
func (c *Client) SetMembershipLevel(ctx context.Context, partnerID int64, level string) error {
	return c.write(ctx, "res.partner", partnerID, map[string]interface{}{"x_membership_level": level})
}

// USDRate returns how many IDR one USD buys according to the company's
// currency table. Odoo stores rates relative to the company currency (IDR),
// so the USD record's rate is USD per IDR and gets inverted.
func (c *Client) USDRate(ctx context.Context) (float64, error) {
	var rows []struct {
		Rate float64 `json:"rate"`
	}
	domain := []interface{}{[]interface{}{"name", "=", "USD"}}
	kwargs := map[string]interface{}{"fields": []string{"rate"}, "limit": 1}
	if err := c.ExecuteKW(ctx, "res.currency", "search_read", []interface{}{domain}, kwargs, &rows); err != nil {
		return 0, err
	}
	if len(rows) == 0 || rows[0].Rate <= 0 {
		return 0, ErrNotFound
	}
	return 1 / rows[0].Rate, nil
}
