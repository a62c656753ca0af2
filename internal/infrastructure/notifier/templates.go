package notifier

import "html/template"

var confirmationTemplate = template.Must(template.New("confirmation").Parse(`<!DOCTYPE html>
<html>
<body>
<h2>Thank you for your order, {{.CustomerName}}!</h2>
<p>Your order <strong>{{.Reference}}</strong> has been received.</p>
<table>
<tr><th>Item</th><th>Qty</th><th>Price</th><th>Subtotal</th></tr>
{{range .Lines}}<tr><td>{{.Name}}</td><td>{{.Quantity}}</td><td>{{.Price}}</td><td>{{.Subtotal}}</td></tr>
{{end}}</table>
<p>Total: <strong>{{.Total}}</strong></p>
<p>Payment: {{.PaymentMethod}} ({{.PaymentStatus}})</p>
<p>Delivering to: {{.DeliveryAddress}}</p>
<p>{{.StoreName}}</p>
</body>
</html>
`))

var ownerAlertTemplate = template.Must(template.New("owner-alert").Parse(`<!DOCTYPE html>
<html>
<body>
<h2>New order {{.Reference}}</h2>
<p>Order id: {{.OrderID}}</p>
<p>Placed: {{.PlacedAt.Format "2006-01-02 15:04 MST"}}</p>
<p>Customer: {{.CustomerName}} &lt;{{.CustomerEmail}}&gt; {{.CustomerPhone}}</p>
<p>Address: {{.DeliveryAddress}}</p>
<ul>
{{range .Lines}}<li>{{.Quantity}} x {{.Name}} @ {{.Price}}</li>
{{end}}</ul>
<p>Total: <strong>{{.Total}}</strong> via {{.PaymentMethod}} ({{.PaymentStatus}})</p>
</body>
</html>
`))
