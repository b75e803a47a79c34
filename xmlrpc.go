package bloghost

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strings"
)

// Minimal XML-RPC framing for the pingback endpoint. The envelope is small
// enough to encode straight with encoding/xml, like the RSS feed.

// xmlrpcCall is a parsed <methodCall> envelope. Parameters are expected to be
// strings; both <value><string>…</string></value> and the bare
// <value>…</value> form are accepted.
type xmlrpcCall struct {
	XMLName xml.Name      `xml:"methodCall"`
	Method  string        `xml:"methodName"`
	Params  []xmlrpcValue `xml:"params>param>value"`
}

type xmlrpcValue struct {
	Str  *string `xml:"string"`
	Text string  `xml:",chardata"`
}

// String returns the parameter's string payload.
func (v xmlrpcValue) String() string {
	if v.Str != nil {
		return *v.Str
	}
	return strings.TrimSpace(v.Text)
}

// parseXMLRPC decodes a methodCall envelope.
func parseXMLRPC(body []byte) (xmlrpcCall, error) {
	var call xmlrpcCall
	if err := xml.Unmarshal(body, &call); err != nil {
		return xmlrpcCall{}, err
	}
	return call, nil
}

// xmlrpcResponse encodes a successful single-string methodResponse.
func xmlrpcResponse(value string) string {
	return fmt.Sprintf(xml.Header+
		"<methodResponse><params><param><value><string>%s</string></value></param></params></methodResponse>\n",
		xmlEscape(value))
}

// xmlrpcFault encodes an XML-RPC Fault response.
func xmlrpcFault(code int, message string) string {
	return fmt.Sprintf(xml.Header+
		"<methodResponse><fault><value><struct>"+
		"<member><name>faultCode</name><value><int>%d</int></value></member>"+
		"<member><name>faultString</name><value><string>%s</string></value></member>"+
		"</struct></value></fault></methodResponse>\n",
		code, xmlEscape(message))
}

func xmlEscape(s string) string {
	var b bytes.Buffer
	_ = xml.EscapeText(&b, []byte(s))
	return b.String()
}
